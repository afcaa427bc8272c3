package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xaenox/rateai/internal/models"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL expires idle session caches; zero keeps them until logout.
	TTL time.Duration
}

type RedisStorage struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisStorage(config RedisConfig, logger *zap.Logger) (*RedisStorage, error) {
	if config.Addr == "" {
		return nil, errors.New("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Redis session cache ready", zap.String("addr", config.Addr), zap.Int("db", config.DB))
	return &RedisStorage{rdb: rdb, ttl: config.TTL, logger: logger}, nil
}

func (s *RedisStorage) LoadSession(ctx context.Context, key string) (*models.Session, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeSession(raw)
}

func (s *RedisStorage) SaveSession(ctx context.Context, key string, session *models.Session) error {
	raw, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) ClearSession(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.rdb.Close()
}
