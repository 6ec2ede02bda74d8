package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/devfeed/internal/annotate"
	"github.com/matheuskafuri/devfeed/internal/browser"
	"github.com/matheuskafuri/devfeed/internal/cache"
	"github.com/matheuskafuri/devfeed/internal/config"
	"github.com/matheuskafuri/devfeed/internal/feed"
	"github.com/matheuskafuri/devfeed/internal/kv"
)

var (
	_ annotate.KV = (*cache.Cache)(nil)
	_ annotate.KV = (*kv.File)(nil)
	_ annotate.KV = (*kv.Redis)(nil)
	_ annotate.KV = (*kv.Memory)(nil)
)

const (
	fetchTimeout = 30 * time.Second
	pingTimeout  = 2 * time.Second
)

// cachePath is swapped out in tests.
var cachePath = config.CachePath

// session is everything one command invocation works with.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *cache.Cache
	store  *annotate.Store
	api    *feed.Client
	rss    feed.Fetcher

	openURL browser.Opener

	backend io.Closer
	out     io.Writer
	errOut  io.Writer
}

func openSession(cmd *cobra.Command) (*session, error) {
	db, err := cache.Open(cachePath())
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	storage, backend, err := openBackend(cmd.Context(), cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		store:   annotate.New(storage, annotate.WithLogger(logger)),
		api:     feed.NewClient(cfg.APIURL, cfg.RequestTimeout(), feed.WithLogger(logger)),
		rss:     feed.NewRSSFetcher(),
		openURL: browser.Open,
		backend: backend,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}, nil
}

// openBackend picks the annotation KV named by storage.backend. The sqlite
// backend shares the cache database, so it has no closer of its own.
func openBackend(ctx context.Context, cfg *config.Config, db *cache.Cache) (annotate.KV, io.Closer, error) {
	switch cfg.StorageBackend() {
	case config.BackendFile:
		f, err := kv.NewFile(cfg.StoragePath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening annotation file: %w", err)
		}
		return f, f, nil

	case config.BackendRedis:
		r, err := kv.NewRedis(cfg.Storage.RedisURL, cfg.RedisNamespace())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		if ctx == nil {
			ctx = context.Background()
		}
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		// An unreachable server is not fatal: the store degrades to
		// session-only state.
		if err := r.Ping(pctx); err != nil {
			logger.Warn("redis unreachable, annotations may not be saved", "err", err)
		}
		return r, r, nil

	case config.BackendMemory:
		m := kv.NewMemory()
		return m, m, nil

	default:
		return db, nil, nil
	}
}

func (s *session) Close() error {
	var errs []error
	if s.backend != nil {
		errs = append(errs, s.backend.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

func (s *session) fetchContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, fetchTimeout)
}

func (s *session) warn(format string, args ...any) {
	fmt.Fprintln(s.errOut, warnStyle.Render("[warn] "+fmt.Sprintf(format, args...)))
}

// notices prints a reminder when annotations are not reaching storage.
func (s *session) notices() {
	if s.store.Degraded() {
		s.warn("annotations could not be saved; changes last for this session only")
	}
}
