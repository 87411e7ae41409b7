package main

import (
	"flag"
	"log"

	"github.com/signalmesh/trafficctl/internal/config"
)

func main() {
	kind := flag.String("kind", "trafficd", "config kind: trafficd|decision")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			switch *kind {
			case "trafficd":
				path = "cmd/trafficd/config.toml"
			case "decision":
				path = "cmd/decisionctl/config.toml"
			default:
				log.Fatalf("unknown kind: %s", *kind)
			}
		}

		switch *kind {
		case "trafficd":
			if _, err := config.LoadServiceConfig(path); err != nil {
				log.Fatal(err)
			}
		case "decision":
			if _, err := config.LoadDecisionConfig(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		switch *kind {
		case "trafficd":
			target = "cmd/trafficd/config.toml"
		case "decision":
			target = "cmd/decisionctl/config.toml"
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
