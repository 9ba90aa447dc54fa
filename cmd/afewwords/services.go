package main

import (
	"context"
	"fmt"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/auth"
	"codeberg.org/afewwords/companion/internal/background"
	"codeberg.org/afewwords/companion/internal/config"
	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/metrics"
	"codeberg.org/afewwords/companion/internal/tokens"
	"github.com/jackc/pgx/v5/pgxpool"
)

// shared process dependencies
type services struct {
	store    *tokens.Store
	client   *api.Client
	auth     *auth.Controller
	recorder metrics.Recorder
	closers  []func()
}

// picks the durable token backend: redis, then postgres, then a file in the state dir
func newPersister(ctx context.Context, cfg *config.Config) (tokens.Persister, func(), error) {
	switch {
	case cfg.RedisURL != "":
		persister, err := tokens.NewRedisPersisterFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}

		closeRedis := func() {
			if err := persister.Close(); err != nil {
				logger.ErrorErr(err, "failed to close redis client")
			}
		}

		logger.Info("token store backed by redis")
		return persister, closeRedis, nil

	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}

		persister, err := tokens.NewPostgresPersister(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("token store backed by postgres")
		return persister, pool.Close, nil

	default:
		persister, err := tokens.NewFilePersister(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("token store backed by file", "dir", cfg.StateDir)
		return persister, func() {}, nil
	}
}

// creates the hydrated token store, API client and auth controller
func newServices(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (*services, error) {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	persister, closePersister, err := newPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := tokens.NewStore(persister)
	if err := store.Hydrate(ctx); err != nil {
		// the gate is open and the store starts empty
		logger.ErrorErr(err, "failed to restore tokens, starting signed out")
	}

	client := api.NewClient(cfg.APIHost, store, api.WithRecorder(recorder))

	controller := auth.NewController(auth.Config{
		Host:        cfg.OIDCHost,
		ClientID:    cfg.OIDCClientID,
		RedirectURI: cfg.OIDCRedirectURI,
	}, store, background.BrowserOpener{}, auth.WithRecorder(recorder))

	return &services{
		store:    store,
		client:   client,
		auth:     controller,
		recorder: recorder,
		closers:  []func(){closePersister},
	}, nil
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
