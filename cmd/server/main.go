package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Trueleap/contentflow/internal/config"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "contentflow",
		Usage: "Serve the job-posting extraction API and the guarded CMS gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file (defaults to $CONFIG_FILE)",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "listen port, overrides server.port and $PORT",
			},
		},
		Action: serve,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port := cmd.String("port"); port != "" {
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger.Initialize(cfg.Server.LogLevel)
	slog.Info("Starting contentflow", "config", cfg.String())

	deps, err := server.BuildDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			slog.Warn("Failed to close clients", "error", err)
		}
	}()

	router, err := server.NewRouter(cfg, deps)
	if err != nil {
		return err
	}

	return server.Run(ctx, net.JoinHostPort("", cfg.Server.Port), router)
}
