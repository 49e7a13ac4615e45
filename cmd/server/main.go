package main

import (
	"context"

	"github.com/vedran77/accounts/internal/app"
	"github.com/vedran77/accounts/internal/config"
	"github.com/vedran77/accounts/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.WithError(err).Error("server stopped")
	}
}
