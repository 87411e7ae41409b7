package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "trafficd":
		return trafficdTemplate, nil
	case "decision":
		return decisionTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const trafficdTemplate = `node = "trafficd"
addr = ":5000"
cors_origins = ["http://localhost:3000"]

# Field-controller link. link_mode is "serial" or "tcp".
link_mode = "serial"
serial_device = "/dev/ttyUSB0"
serial_baud = 115200
# link_addr = "192.168.4.1:8880"

connect_attempts = 5
connect_delay_s = 5
reconnect_throttle_s = 30
`

const decisionTemplate = `backend_url = "http://localhost:5000"

# "balanced" or "queue_weighted"
policy = "queue_weighted"

# One proposal per signal cycle by default.
interval_s = 55.0
beacon_poll_ms = 500
request_timeout_ms = 2000
`
