package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/displayhub/displayhub/internal/api"
	"github.com/displayhub/displayhub/internal/authority"
	"github.com/displayhub/displayhub/internal/config"
	"github.com/displayhub/displayhub/internal/logger"
	"github.com/displayhub/displayhub/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the displayhub server",
	Long: `Start the displayhub HTTP server with display change monitoring.

The server keeps the local display registry warm, watches the X server for
output changes and exposes displays, snapshots and a WebSocket event stream
over a REST API.`,
	Example: `  # Start server on default port (8080)
  displayhub serve

  # Start server on custom port
  displayhub serve --port 9090

  # Start with debug logging
  displayhub serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}

	// Flag overrides
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetPort(port)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)
	log := logger.WithComponent("serve")
	log.Info().Str("path", configMgr.GetConfigPath()).Msg("Configuration loaded")

	auth, err := newAuthority(cfg)
	if err != nil {
		return err
	}
	defer auth.Close()

	reg := registry.New(auth, cfg.Compat.Params())
	hub := registry.NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, auth.Events())

	server := api.NewServer(reg, hub, auth, configMgr)
	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Int("displays", len(reg.GetDisplays())).
		Msg("displayhub is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down gracefully")
	return nil
}

// newAuthority builds the configured authority backend and starts its
// change watcher.
func newAuthority(cfg *config.Config) (authority.Authority, error) {
	switch cfg.Authority.Backend {
	case "", "x11":
		auth, err := authority.NewX11(cfg.Authority.PollInterval())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to display authority: %w", err)
		}
		auth.Start()
		return auth, nil
	default:
		return nil, fmt.Errorf("unknown authority backend: %s", cfg.Authority.Backend)
	}
}
