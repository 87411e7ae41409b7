package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/signalmesh/trafficctl/internal/config"
	"github.com/signalmesh/trafficctl/internal/link"
	"github.com/signalmesh/trafficctl/internal/observability"
	"github.com/signalmesh/trafficctl/internal/server"
	"github.com/signalmesh/trafficctl/internal/state"
)

func main() {
	configPath := flag.String("config", "", "path to trafficd config.toml (defaults apply when omitted)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "trafficd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := defaultServiceConfig()
	if configPath != "" {
		loaded, err := config.LoadServiceConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := observability.InitLogger(cfg.Node)
	observability.RegisterMetrics()
	logger.Info().
		Str("addr", cfg.Addr).
		Str("link_mode", cfg.LinkMode).
		Msg("trafficd_start")

	store := state.NewStore()
	manager := link.NewManager(config.LinkConfig(cfg), config.LinkOpener(cfg), store)
	srv := server.NewServer(config.ServerConfig(cfg), store, manager)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	linkErr := make(chan error, 1)
	go func() {
		linkErr <- manager.Run(ctx)
	}()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Run(ctx)
	}()

	select {
	case err := <-serveErr:
		return err
	case err := <-linkErr:
		if err != nil {
			return err
		}
		return <-serveErr
	}
}

func defaultServiceConfig() config.ServiceConfig {
	return config.ServiceConfig{
		Node:         "trafficd",
		Addr:         ":5000",
		CorsOrigins:  []string{"http://localhost:3000"},
		LinkMode:     config.LinkModeSerial,
		SerialDevice: "/dev/ttyUSB0",
		SerialBaud:   115200,
	}
}
