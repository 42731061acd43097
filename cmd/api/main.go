package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/userapi/internal/config"
	"github.com/geocoder89/userapi/internal/db"
	httpx "github.com/geocoder89/userapi/internal/http"
	"github.com/geocoder89/userapi/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Stdout)
	stop()

	if err != nil {
		slog.Error("userapi exited", "err", err)
		os.Exit(1)
	}
}

// run owns every resource until ctx is done. Each teardown is deferred the
// moment its resource exists, so a failure halfway through startup still
// unwinds what was built.
func run(ctx context.Context, logOut io.Writer) error {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLoggerTo(logOut, cfg.Env)
	slog.SetDefault(log)

	shutdownTracer, err := observability.InitTracer(ctx, "userapi", cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		if err := shutdownTracer(tctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
		log.Info("tracer stopped")
	}()

	pool := db.New(db.Config{
		URL:            cfg.DBURL,
		MaxConns:       cfg.DBMaxConns,
		ConnectTimeout: 5 * time.Second,
	})
	defer func() {
		pool.Close()
		log.Info("database pool closed")
	}()

	// no traffic is accepted unless the users table is guaranteed
	if err := db.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	log.Info("database ready", "max_conns", cfg.DBMaxConns)

	var prom *observability.Prom
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		prom = observability.NewProm(reg)
		observability.RegisterPoolStats(reg, pool.Stat)
	}

	router := httpx.NewRouter(log, pool, cfg, prom)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")

	return nil
}
