// Package app wires the Patch server runtime: config, logging, storage,
// migrations, and HTTP routes.
//
// It is intentionally small and deterministic to keep CI gates strict and
// behavior predictable.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"time"

	"patch/cmd/identity"
	authapi "patch/cmd/internal/auth/api"
	"patch/cmd/internal/auth/token"
	"patch/cmd/internal/content"
	contentapi "patch/cmd/internal/content/api"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// App is the Patch server runtime.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth    *authapi.Handler
	content *contentapi.Handler
	metrics *Metrics
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	st, dbPool, dbEnabled, users, posts, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	closeOnErr := func() {
		_ = st.Close(context.Background())
	}

	tokens, err := newTokenManager(dbEnabled, log)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	authHandler, err := authapi.NewHandler(log, users, tokens, authapi.LoadConfigFromEnv())
	if err != nil {
		closeOnErr()
		return nil, err
	}

	contentHandler, err := contentapi.NewHandler(log, posts, authHandler.Guard(), contentapi.DefaultConfig())
	if err != nil {
		closeOnErr()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		auth:      authHandler,
		content:   contentHandler,
		metrics:   NewMetrics(),
	}, nil
}

// Handler builds the full middleware-wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.content, a.metrics)

	var handler http.Handler = mux
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithSecurityHeaders(handler)
	if a.cfg.MetricsEnabled {
		handler = a.metrics.WithMetrics(handler)
	}
	handler = WithRequestLogging(handler, a.log)
	return handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and in-memory dev stores.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, identity.Store, content.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		users := identity.NewInMemoryStore()
		posts := content.NewInMemoryStore(func(id int64) bool {
			_, err := users.GetUserByID(context.Background(), id)
			return err == nil
		})
		return nopStore{}, nil, false, users, posts, nil
	}

	if cfg.MigrateOnStart {
		if err := Migrate(ctx, cfg, log); err != nil {
			return nil, nil, false, nil, nil, err
		}
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, nil, err
	}

	log.Info("db.enabled.postgres_store")

	// Ownership model:
	// - app owns pool lifecycle
	// - stores never close the pool themselves
	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, err
	}
	posts, err := content.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, err
	}

	return dbStore{pool: pool}, pool, true, users, posts, nil
}

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// newTokenManager loads token config. Without a database an ephemeral secret
// is allowed so the dev server starts with zero setup; tokens then die with
// the process. A configured database means production intent, and a missing
// secret is a hard startup error.
func newTokenManager(dbEnabled bool, log Logger) (*token.Manager, error) {
	cfg, err := token.FromEnv()
	if err != nil {
		if !errors.Is(err, token.ErrSecretMissing) || dbEnabled {
			return nil, err
		}

		secret := make([]byte, token.MinSecretBytes)
		if _, rerr := rand.Read(secret); rerr != nil {
			return nil, rerr
		}
		log.Warn("token.secret.ephemeral", "hint", "set "+token.SecretEnvKey+" to keep tokens valid across restarts")
		cfg = token.Config{Secret: secret, Issuer: "patch"}
	}

	return token.NewManager(cfg)
}
