package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrConnect      = errors.New("database connection failed")
	ErrNotConnected = errors.New("database pool not connected")
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err carries SQLSTATE 23505 anywhere in its chain.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
