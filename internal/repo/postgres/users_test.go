package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/geocoder89/userapi/internal/db"
	"github.com/geocoder89/userapi/internal/domain/user"
	"github.com/geocoder89/userapi/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertUserSQL(t *testing.T) {
	query, args, err := insertUserSQL(user.CreateUserRequest{Name: "Bob", Email: "bob@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name,email) VALUES ($1,$2) RETURNING id, name, email", query)
	assert.Equal(t, []any{"Bob", "bob@example.com"}, args)
}

func TestSelectUserByIDSQL(t *testing.T) {
	query, args, err := selectUserByIDSQL(42)

	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, email FROM users WHERE id = $1", query)
	assert.Equal(t, []any{int64(42)}, args)
}

func TestInsertedRow(t *testing.T) {
	bob := user.User{ID: 1, Name: "Bob", Email: "bob@example.com"}

	u, err := insertedRow(bob, true, nil)
	require.NoError(t, err)
	assert.Equal(t, bob, u)

	u, err = insertedRow(user.User{}, false, nil)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Zero(t, u.ID)

	boom := errors.New("boom")
	_, err = insertedRow(bob, true, boom)
	assert.ErrorIs(t, err, boom)
}

func TestListUsersSQL(t *testing.T) {
	query, args, err := listUsersSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, email FROM users ORDER BY id ASC", query)
	assert.Empty(t, args)
}

// Postgres-backed tests need TEST_DATABASE_URL; the users table is truncated per test.

func setupRepo(t *testing.T) (*UsersRepo, *db.Pool, *observability.Prom) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool := db.New(db.Config{URL: dsn, MaxConns: 4})
	t.Cleanup(pool.Close)

	require.NoError(t, db.EnsureSchema(ctx, pool))

	_, err := pool.Execute(ctx, `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)

	prom := observability.NewProm(prometheus.NewRegistry())

	return NewUsersRepo(pool, prom), pool, prom
}

func TestUsersRepo_CreateGetList(t *testing.T) {
	repo, _, _ := setupRepo(t)
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	seen := map[int64]bool{}
	var created []user.User

	for i := 0; i < 5; i++ {
		req := user.CreateUserRequest{
			Name:  fmt.Sprintf("user-%d", i),
			Email: fmt.Sprintf("user-%d@example.com", i),
		}

		u, err := repo.Create(ctx, req)
		require.NoError(t, err)

		assert.False(t, seen[u.ID], "id %d reused", u.ID)
		seen[u.ID] = true
		assert.Equal(t, req.Name, u.Name)
		assert.Equal(t, req.Email, u.Email)

		got, ok, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, u, got)

		created = append(created, u)
	}

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(created))
	assert.Equal(t, created, list)

	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestUsersRepo_GetByIDAbsent(t *testing.T) {
	repo, _, _ := setupRepo(t)

	u, ok, err := repo.GetByID(context.Background(), 9999)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, user.User{}, u)
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	repo, _, prom := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, user.CreateUserRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, user.CreateUserRequest{Name: "Other Bob", Email: "bob@example.com"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].Name)

	assert.Equal(t, 1.0, testutil.ToFloat64(prom.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
}

func TestUsersRepo_CanceledContext(t *testing.T) {
	repo, _, _ := setupRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)
	assert.Error(t, err)
}
