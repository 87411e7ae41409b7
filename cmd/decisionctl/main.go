package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/signalmesh/trafficctl/internal/coordinator"
	"github.com/signalmesh/trafficctl/internal/observability"
	"github.com/signalmesh/trafficctl/internal/policy"
)

func main() {
	configPath := flag.String("config", "", "path to decisionctl config.toml (defaults apply when omitted)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "decisionctl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := defaultRuntimeConfig()
	if configPath != "" {
		loaded, err := loadRuntimeConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := observability.InitLogger("decisionctl")
	logger.Info().
		Str("backend_url", cfg.BackendURL).
		Str("policy", cfg.PolicyName).
		Msg("decisionctl_start")

	pol, err := policy.New(cfg.PolicyName)
	if err != nil {
		return err
	}
	client, err := coordinator.NewClient(cfg.BackendURL, cfg.Loop.RequestTimeout)
	if err != nil {
		return err
	}
	loop := coordinator.NewLoop(cfg.Loop, client, pol)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return loop.Run(ctx)
}
