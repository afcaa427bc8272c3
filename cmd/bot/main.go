package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xaenox/rateai/internal/app"
	"github.com/xaenox/rateai/internal/bot"
	"github.com/xaenox/rateai/pkg/config"
	"go.uber.org/zap"
)

const configPath = "config.yaml"

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}
	if cfg.Log.Development {
		logger, _ = app.NewLogger(true)
	}
	defer logger.Sync()

	if cfg.Telegram.Token == "" {
		logger.Fatal("Telegram token is not set (telegram.token or TELEGRAM_TOKEN)")
	}

	// Initialize storage and classifier
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.Close()

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, cfg.Telegram.Debug, a.NewStore, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
