// Package app wires the Budgetly server runtime: config, logging, storage,
// HTTP routes and the background session sweeper.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	authapi "budgetly/cmd/internal/auth/api"
	"budgetly/cmd/internal/auth/session"
	"budgetly/cmd/internal/ledger"
	"budgetly/cmd/internal/rates"

	"budgetly/cmd/identity"
	"budgetly/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the Budgetly server runtime. It owns the database pool, the wired
// HTTP handlers and the session sweeper.
type App struct {
	cfg Config
	log Logger

	dbPool  *pgxpool.Pool
	metrics *Metrics

	sweeper *session.Sweeper

	auth  *authapi.Handler
	books *ledger.Handler
	fx    *rates.Handler
}

// New constructs a fully wired App instance from config and logger.
// The database is mandatory; there is no in-memory fallback.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: BUDGETLY_DATABASE_URL is required")
	}

	if cfg.RunMigrations {
		if err := RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		log.Info("db.migrated")
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a, err := wire(cfg, log, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

func wire(cfg Config, log Logger, pool *pgxpool.Pool) (*App, error) {
	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	sessStore := session.NewPostgresStore(pool)
	sessions := session.NewService(sessCfg, sessStore)
	sweeper := session.NewSweeper(log, sessStore, sessCfg.SweepInterval)

	hasher, err := password.FromEnv()
	if err != nil {
		return nil, err
	}

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, sessions, hasher)
	if err != nil {
		return nil, err
	}

	ledgerStore, err := ledger.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}
	books, err := ledger.NewHandler(log, ledgerStore, sessions)
	if err != nil {
		return nil, err
	}

	ratesCfg, err := rates.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	fx := rates.NewHandler(log, ratesCfg, nil)

	return &App{
		cfg:     cfg,
		log:     log,
		dbPool:  pool,
		metrics: NewMetrics(),
		sweeper: sweeper,
		auth:    auth,
		books:   books,
		fx:      fx,
	}, nil
}

// Run starts the HTTP server and the session sweeper and blocks until context
// cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.metrics, a.auth, a.books, a.fx)

	var handler http.Handler = mux
	handler = a.metrics.Wrap(handler)
	handler = WithCORS(handler, a.cfg.CORSOrigins)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sweeper.Run(sweepCtx)

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

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

	a.dbPool.Close()

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
