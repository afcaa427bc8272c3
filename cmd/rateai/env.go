package main

import (
	"context"
	"fmt"
	"os"

	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/app"
	"github.com/xaenox/rateai/internal/store"
	"github.com/xaenox/rateai/pkg/config"
	"go.uber.org/zap"
)

// env holds the session shared by the commands of one process. It is created
// on first use so that help and completion work without a backend.
type env struct {
	configPath string
	debug      bool

	logger *zap.Logger
	app    *app.App
	store  *store.Store
}

func (e *env) session(ctx context.Context) (*store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	cfg, err := config.LoadConfig(e.configPath)
	if err != nil {
		return nil, err
	}
	logger := e.logger
	if logger == nil {
		if logger, err = app.NewLogger(e.debug || cfg.Log.Development); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	s, err := a.NewStore("cli", store.NavigatorFunc(func(ctx context.Context, location string) {
		fmt.Fprintf(os.Stderr, "Session expired or missing. Log in with: login <username> <password> (%s)\n", api.Origin(ctx))
	}))
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := s.Bootstrap(ctx); err != nil {
		logger.Warn("Bootstrap incomplete", zap.Error(err))
	}
	e.logger, e.app, e.store = logger, a, s
	return s, nil
}

func (e *env) close() {
	if e.app != nil {
		e.app.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}
