package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/userapi/internal/db")

func startSpan(ctx context.Context, name, query string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", query),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Fetch runs a query on its own connection and scans every row into T by column name.
// Zero rows gives an empty, non-nil slice.
func Fetch[T any](ctx context.Context, p *Pool, query string, args ...any) (out []T, err error) {
	ctx, span := startSpan(ctx, "db.fetch", query)
	defer func() { endSpan(span, err) }()

	conn, err := p.acquire(ctx)

	if err != nil {
		return nil, err
	}

	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	out, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []T{}
	}

	return out, nil
}

// FetchOne is Fetch for at most one row. ok is false when nothing matched.
func FetchOne[T any](ctx context.Context, p *Pool, query string, args ...any) (out T, ok bool, err error) {
	ctx, span := startSpan(ctx, "db.fetch_one", query)
	defer func() { endSpan(span, err) }()

	conn, err := p.acquire(ctx)

	if err != nil {
		return out, false, err
	}

	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)

	if err != nil {
		return out, false, err
	}

	out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[T])

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, false, nil
		}

		return out, false, err
	}

	return out, true, nil
}

// Execute runs a statement that returns no rows and reports its command tag.
func (p *Pool) Execute(ctx context.Context, query string, args ...any) (tag pgconn.CommandTag, err error) {
	ctx, span := startSpan(ctx, "db.execute", query)
	defer func() { endSpan(span, err) }()

	conn, err := p.acquire(ctx)

	if err != nil {
		return tag, err
	}

	defer conn.Release()

	return conn.Exec(ctx, query, args...)
}
