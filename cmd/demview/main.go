// Package main is the entry point for the terrain viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/demview/internal/config"
	"github.com/Faultbox/demview/internal/logger"
	"github.com/Faultbox/demview/internal/tiles"
	"github.com/Faultbox/demview/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== demview ===", zap.String("scenario", cfg.Scenario))
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	srcOpts := cfg.TileSource()
	srcOpts.RetryDelay = 500 * time.Millisecond
	src, err := tiles.New(srcOpts)
	if err != nil {
		return fmt.Errorf("tile source: %w", err)
	}

	opts, err := cfg.CompositorOptions()
	if err != nil {
		return err
	}

	v, err := viewer.New(viewer.Config{
		Title:    "demview",
		Graphics: cfg.Graphics,
		Camera:   cfg.Camera,
		Tiles:    cfg.CompositeTiles(),
		Source:   src,
		Options:  opts,
	})
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return v.Run(ctx)
}
