package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"wrapped_unique", fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"}), "unique_violation"},
		{"other_pg", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"connection", errors.New("failed to connect to host"), "connection"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDBErr(tt.err))
		})
	}
}

func TestObserveDB(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	require.Error(t, err)

	require.NoError(t, p.ObserveDB("users.create", func() error { return nil }))

	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.DbQueryDuration))
}

func TestObserveDB_NilProm(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("users.list", func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestRegisterPoolStats_NotConnected(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterPoolStats(reg, func() *pgxpool.Stat { return nil })

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 3)

	for _, mf := range families {
		assert.True(t, strings.HasPrefix(mf.GetName(), "userapi_db_pool_"), mf.GetName())
		assert.Equal(t, 0.0, mf.GetMetric()[0].GetGauge().GetValue())
	}
}

func TestGinHandleMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/users/:id", func(ctx *gin.Context) { ctx.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(p.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/users/:id", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "userapi_http_requests_total")
}

func TestLoggerAddsTraceAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-1")

	log.InfoContext(ctx, "hello")
	log.DebugContext(ctx, "dropped at info level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))

	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", rec["span_id"])
	assert.Equal(t, "req-1", rec["request_id"])
}

func TestLoggerWithoutContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev")

	log.With("component", "test").Debug("plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))

	assert.Equal(t, "test", rec["component"])
	assert.NotContains(t, rec, "trace_id")
	assert.NotContains(t, rec, "request_id")
}

func TestInitTracer_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "userapi", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
