package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// ObserveDB times fn under the logical op name. A nil Prom just runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

// RegisterPoolStats exports pool gauges read lazily from statFn on each scrape.
// statFn may return nil while the pool is not connected.
func RegisterPoolStats(reg prometheus.Registerer, statFn func() *pgxpool.Stat) {
	gauge := func(name, help string, read func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db_pool",
				Name:      name,
				Help:      help,
			},
			func() float64 {
				s := statFn()
				if s == nil {
					return 0
				}
				return float64(read(s))
			},
		)
	}

	reg.MustRegister(
		gauge("acquired_conns", "Connections currently checked out of the pool.", (*pgxpool.Stat).AcquiredConns),
		gauge("idle_conns", "Idle connections in the pool.", (*pgxpool.Stat).IdleConns),
		gauge("total_conns", "All connections owned by the pool.", (*pgxpool.Stat).TotalConns),
	)
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23502":
			return "not_null_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connect"):
		return "connection"
	default:
		return "unknown"
	}
}
