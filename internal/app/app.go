// Package app wires configuration into the shared parts of a front-end:
// logger, session cache backend, tag classifier and per-session stores.
package app

import (
	"fmt"

	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/classifier"
	"github.com/xaenox/rateai/internal/reaction"
	"github.com/xaenox/rateai/internal/storage"
	"github.com/xaenox/rateai/internal/store"
	"github.com/xaenox/rateai/internal/tags"
	"github.com/xaenox/rateai/pkg/config"
	"go.uber.org/zap"
)

type App struct {
	cfg        *config.Config
	Storage    storage.Storage
	Classifier classifier.Classifier
	vocab      *tags.Vocabulary
	policy     reaction.Policy
	logger     *zap.Logger
}

// NewLogger returns the production logger, or the development one when debug is set.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	policy, err := reaction.ParsePolicy(cfg.Reactions.Policy)
	if err != nil {
		return nil, err
	}
	st, err := OpenStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	vocab := tags.NewVocabulary(cfg.Tags.Vocabulary)

	return &App{
		cfg:        cfg,
		Storage:    st,
		Classifier: NewClassifier(cfg, vocab, logger),
		vocab:      vocab,
		policy:     policy,
		logger:     logger,
	}, nil
}

// OpenStorage opens the session cache backend selected by storage.backend.
func OpenStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		st, err := storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return st, nil
	case "redis":
		logger.Info("Using Redis storage", zap.String("addr", cfg.Redis.Addr))
		st, err := storage.NewRedisStorage(storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return st, nil
	default:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
}

// NewClassifier returns the GPT classifier when an API key is configured and
// the keyword classifier otherwise.
func NewClassifier(cfg *config.Config, vocab *tags.Vocabulary, logger *zap.Logger) classifier.Classifier {
	if cfg.Classifier.Enabled && cfg.OpenAI.APIKey != "" {
		return classifier.NewGPTClassifier(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			cfg.Classifier.MaxTags,
			vocab,
			logger,
		)
	}
	return classifier.NewSimpleClassifier(vocab, cfg.Classifier.MaxTags)
}

// NewStore creates the state container of one session. scope namespaces the
// session cache key, e.g. with a chat id; an empty scope uses the bare key.
func (a *App) NewStore(scope string, nav store.Navigator) (*store.Store, error) {
	client, err := api.NewClient(api.Options{
		BaseURL:   a.cfg.API.BaseURL,
		Timeout:   a.cfg.API.Timeout,
		UserAgent: a.cfg.API.UserAgent,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	return store.New(client, a.Storage, store.Options{
		CacheKey:       storage.Key(a.cfg.Storage.Key, scope),
		Vocabulary:     a.vocab,
		ReactionPolicy: a.policy,
		Navigator:      nav,
		Classifier:     a.Classifier,
	}, a.logger), nil
}

func (a *App) Close() error {
	return a.Storage.Close()
}
