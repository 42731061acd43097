package db

import (
	"context"
	"fmt"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE
)`

// EnsureSchema connects and creates the users table when missing. Safe on every start.
func EnsureSchema(ctx context.Context, p *Pool) error {
	if err := p.Connect(ctx); err != nil {
		return err
	}

	if _, err := p.Execute(ctx, createUsersTable); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}

	return nil
}
