package cmd

import (
	"context"
	"fmt"

	"vertretungsplan-bot/checker"
	"vertretungsplan-bot/dsb"
	"vertretungsplan-bot/matcher"
	"vertretungsplan-bot/parser"
	"vertretungsplan-bot/storage"

	"go.uber.org/zap"
)

// openStorage connects to Redis if redis.addr is configured, nil otherwise
func openStorage(ctx context.Context) (*storage.Storage, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	store := storage.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Debug("Connected to redis", zap.String("addr", cfg.Redis.Addr))
	return store, nil
}

// newClient wires both backends, web first, and the emergency sources
func newClient(store *storage.Storage) *dsb.Client {
	timeout := cfg.TimeoutDuration()
	emergency := cfg.EmergencySources()
	if store != nil {
		emergency = cfg.EmergencySources(store)
	}

	return dsb.NewClient(logger,
		dsb.Options{
			Tries:     cfg.DSB.Tries,
			Path:      cfg.DSB.IndexPath,
			Emergency: emergency,
		},
		dsb.NewWebBackend(logger, cfg.DSB.LoginURL, cfg.DSB.DataURLs, timeout),
		dsb.NewAppBackend(logger, cfg.DSB.AppURL, timeout),
	)
}

func newChecker(store *storage.Storage, level int) *checker.Checker {
	c := checker.New(logger,
		newClient(store),
		parser.NewClient(logger, cfg.TimeoutDuration()),
		matcher.New(logger, level),
	)
	if store != nil {
		c.Store = store
	}
	return c
}
