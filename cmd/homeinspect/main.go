package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/homeinspect/internal/app"
	"github.com/vbonduro/homeinspect/internal/config"
	"github.com/vbonduro/homeinspect/internal/db"
	"github.com/vbonduro/homeinspect/internal/logging"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := app.OpenPhotoStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	server, err := app.NewServer(database, photoStg, app.OptionsFromConfig(cfg), logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		return
	}

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
