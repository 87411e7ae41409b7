package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Link transport modes for the field-controller connection.
const (
	LinkModeSerial = "serial"
	LinkModeTCP    = "tcp"
)

// ServiceConfig is the trafficd service configuration file schema.
type ServiceConfig struct {
	Node        string   `toml:"node"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`

	LinkMode     string `toml:"link_mode"`
	SerialDevice string `toml:"serial_device"`
	SerialBaud   int    `toml:"serial_baud"`
	LinkAddr     string `toml:"link_addr"`

	ConnectAttempts      int `toml:"connect_attempts"`
	ConnectDelaySec      int `toml:"connect_delay_s"`
	ReconnectThrottleSec int `toml:"reconnect_throttle_s"`
}

// DecisionConfig is the decisionctl configuration file schema, used
// here for template generation and validation; the binary overlays it
// onto runtime defaults itself.
type DecisionConfig struct {
	BackendURL       string  `toml:"backend_url"`
	Policy           string  `toml:"policy"`
	IntervalSec      float64 `toml:"interval_s"`
	BeaconPollMS     int     `toml:"beacon_poll_ms"`
	RequestTimeoutMS int     `toml:"request_timeout_ms"`
}

// LoadServiceConfig reads and validates a trafficd config file,
// filling defaults for omitted keys.
func LoadServiceConfig(path string) (ServiceConfig, error) {
	var cfg ServiceConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServiceConfig{}, err
	}
	if cfg.Node == "" {
		cfg.Node = "trafficd"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":5000"
	}
	if cfg.LinkMode == "" {
		cfg.LinkMode = LinkModeSerial
	}
	if cfg.SerialDevice == "" {
		cfg.SerialDevice = "/dev/ttyUSB0"
	}
	if cfg.SerialBaud == 0 {
		cfg.SerialBaud = 115200
	}
	if err := ValidateServiceConfig(cfg); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

// LoadDecisionConfig reads and validates a decisionctl config file.
func LoadDecisionConfig(path string) (DecisionConfig, error) {
	var cfg DecisionConfig
	if err := loadToml(path, &cfg); err != nil {
		return DecisionConfig{}, err
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:5000"
	}
	if err := ValidateDecisionConfig(cfg); err != nil {
		return DecisionConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServiceConfig(cfg ServiceConfig) error {
	if strings.TrimSpace(cfg.Node) == "" {
		return fmt.Errorf("service config missing node")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("service config missing addr")
	}
	switch cfg.LinkMode {
	case LinkModeSerial:
		if strings.TrimSpace(cfg.SerialDevice) == "" {
			return fmt.Errorf("serial link requires serial_device")
		}
		if cfg.SerialBaud <= 0 {
			return fmt.Errorf("serial link requires positive serial_baud")
		}
	case LinkModeTCP:
		if strings.TrimSpace(cfg.LinkAddr) == "" {
			return fmt.Errorf("tcp link requires link_addr")
		}
	default:
		return fmt.Errorf("unknown link_mode %q (expected %s or %s)", cfg.LinkMode, LinkModeSerial, LinkModeTCP)
	}
	if cfg.ConnectAttempts < 0 || cfg.ConnectDelaySec < 0 || cfg.ReconnectThrottleSec < 0 {
		return fmt.Errorf("link retry settings must be non-negative")
	}
	return nil
}

func ValidateDecisionConfig(cfg DecisionConfig) error {
	if strings.TrimSpace(cfg.BackendURL) == "" {
		return fmt.Errorf("decision config missing backend_url")
	}
	if cfg.IntervalSec < 0 || cfg.BeaconPollMS < 0 || cfg.RequestTimeoutMS < 0 {
		return fmt.Errorf("decision timing settings must be non-negative")
	}
	return nil
}
