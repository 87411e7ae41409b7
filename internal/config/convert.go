package config

import (
	"time"

	"github.com/signalmesh/trafficctl/internal/link"
	"github.com/signalmesh/trafficctl/internal/server"
)

// ServerConfig maps the file schema onto the control-plane runtime
// configuration.
func ServerConfig(cfg ServiceConfig) server.Config {
	return server.Config{
		ListenAddr:  cfg.Addr,
		Node:        cfg.Node,
		CorsOrigins: cfg.CorsOrigins,
	}
}

// LinkConfig maps the file schema onto the link-manager runtime
// configuration. Zero values defer to the link defaults.
func LinkConfig(cfg ServiceConfig) link.Config {
	return link.Config{
		Node:              cfg.Node,
		ConnectAttempts:   cfg.ConnectAttempts,
		ConnectDelay:      time.Duration(cfg.ConnectDelaySec) * time.Second,
		ReconnectThrottle: time.Duration(cfg.ReconnectThrottleSec) * time.Second,
	}
}

// LinkOpener builds the configured physical transport.
func LinkOpener(cfg ServiceConfig) link.Opener {
	if cfg.LinkMode == LinkModeTCP {
		return link.TCPOpener{Addr: cfg.LinkAddr}
	}
	return link.SerialOpener{Device: cfg.SerialDevice, Baud: cfg.SerialBaud}
}
