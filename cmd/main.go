package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/qualitylink/qldash/internal/config"
	"github.com/qualitylink/qldash/internal/db"
	"github.com/qualitylink/qldash/internal/db/repos"
	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/services"
	"github.com/qualitylink/qldash/internal/web"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
)

// main serves the dashboard configured by the environment, without the CLI
func main() {
	cfg, err := config.Load("")
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.LoggerOptions())

	apiClient, err := client.NewClient(cfg.ClientOptions())
	if err != nil {
		logger.Fatalf("Failed to create API client: %v", err)
	}

	conn, err := db.New(cfg.DBOptions())
	if err != nil {
		logger.Fatalf("Failed to open preference store: %v", err)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Errorf("Failed to close preference store: %v", err)
		}
	}()

	theme := services.NewTheme(repos.NewPreferenceRepository(conn))
	server, err := web.New(apiClient, theme, cfg.WebOptions())
	if err != nil {
		logger.Fatalf("Failed to create dashboard server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, cfg.Server.Listen); err != nil {
		logger.Errorf("Dashboard server stopped: %v", err)
	}
}
