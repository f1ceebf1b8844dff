package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Aman-CERP/patrology/internal/corpus"
	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/search"
	"github.com/Aman-CERP/patrology/internal/telemetry"
)

// session holds the open corpus of one command.
type session struct {
	store    *corpus.Store
	postings fulltext.Postings
	engine   *search.Engine
	metrics  *telemetry.QueryMetrics
	lock     *corpus.DataDirLock
}

// openCorpus opens the configured corpus. Writers hold the data directory
// lock until Close and fail fast when another writer has it.
func (a *app) openCorpus(ctx context.Context, writer bool) (*session, error) {
	cfg := a.cfg
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, perrors.New(perrors.ErrCodeStoreIO, "failed to create data directory", err).
			WithDetail("path", cfg.Paths.DataDir)
	}

	s := &session{}
	if writer {
		lock := corpus.NewDataDirLock(cfg.Paths.DataDir)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, perrors.New(perrors.ErrCodeStoreLocked, "failed to lock data directory", err)
		}
		if !ok {
			return nil, perrors.New(perrors.ErrCodeStoreBusy, "another indexing process holds the corpus", nil).
				WithSuggestion("Wait for it to finish or stop it, then retry")
		}
		s.lock = lock
	}

	store, err := corpus.Open(cfg.DatabasePath(),
		corpus.WithMaxOpenConns(cfg.Store.MaxOpenConns),
		corpus.WithBusyTimeout(cfg.Store.BusyTimeoutMS),
		corpus.WithCacheSizeMB(cfg.Store.CacheSizeMB))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.store = store

	backend := fulltext.Backend(strings.ToLower(cfg.FullText.Backend))
	s.postings, err = fulltext.New(ctx, backend, cfg.BleveDir(), store)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	strategies, err := search.ParseStrategies(cfg.Search.DefaultStrategies)
	if err != nil {
		_ = s.Close()
		return nil, perrors.ConfigError("invalid search.default_strategies", err)
	}

	opts := []search.EngineOption{search.WithConfig(search.Config{
		DefaultLimit:         cfg.Search.DefaultLimit,
		MaxLimit:             cfg.Search.MaxLimit,
		ProximityDistance:    cfg.Search.ProximityDistance,
		ProximityOverfetch:   cfg.Search.ProximityOverfetch,
		FuzzyThreshold:       cfg.Search.FuzzyThreshold,
		FuzzyCandidateFactor: cfg.Search.FuzzyCandidateFactor,
		TrigramPrefilter:     cfg.Fuzzy.TrigramPrefilter,
		PrefilterChapters:    cfg.Fuzzy.PrefilterChapters,
		MinTrigramOverlap:    cfg.Fuzzy.MinTrigramOverlap,
		ContextWords:         cfg.Search.ContextWords,
		TokenCacheSize:       cfg.Search.TokenCacheSize,
		DefaultStrategies:    strategies,
	})}

	if cfg.Telemetry.Enabled {
		metricsStore, err := telemetry.NewSQLiteMetricsStore(store.DB())
		if err != nil {
			// Searching works without telemetry.
			slog.Warn("telemetry_disabled", slog.String("error", err.Error()))
		} else {
			s.metrics = telemetry.NewQueryMetricsWithConfig(metricsStore, telemetry.QueryMetricsConfig{
				TopTermsCapacity:    100,
				ZeroResultsCapacity: 100,
				FlushInterval:       cfg.FlushIntervalDuration(),
			})
			opts = append(opts, search.WithMetrics(s.metrics))
		}
	}

	s.engine, err = search.NewEngine(store, s.postings, opts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	slog.Debug("corpus_opened",
		slog.String("database", store.Path()),
		slog.String("backend", string(backend)),
		slog.Bool("writer", writer))
	return s, nil
}

// Close flushes telemetry, closes the indexes and releases the lock.
func (s *session) Close() error {
	var errs []error
	if s.metrics != nil {
		errs = append(errs, s.metrics.Close())
	}
	if s.postings != nil {
		errs = append(errs, s.postings.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("unlock data directory: %w", err))
		}
	}
	return errors.Join(errs...)
}
