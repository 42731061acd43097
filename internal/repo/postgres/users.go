package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/userapi/internal/db"
	"github.com/geocoder89/userapi/internal/domain/user"
	"github.com/geocoder89/userapi/internal/observability"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{"id", "name", "email"}

type UsersRepo struct {
	pool *db.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *db.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

// Create inserts a user. Database errors, unique violations on email included, are returned as-is.
func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (u user.User, err error) {
	query, args, err := insertUserSQL(req)

	if err != nil {
		return
	}

	err = r.prom.ObserveDB("users.create", func() error {
		u, err = insertedRow(db.FetchOne[user.User](ctx, r.pool, query, args...))
		return err
	})

	return
}

// insertedRow turns an INSERT ... RETURNING that came back empty into an error.
func insertedRow(u user.User, ok bool, err error) (user.User, error) {
	if err != nil {
		return user.User{}, err
	}

	if !ok {
		return user.User{}, fmt.Errorf("insert returned no row: %w", pgx.ErrNoRows)
	}

	return u, nil
}

// GetByID reports ok=false when no row has that id.
func (r *UsersRepo) GetByID(ctx context.Context, id int64) (u user.User, ok bool, err error) {
	query, args, err := selectUserByIDSQL(id)

	if err != nil {
		return
	}

	err = r.prom.ObserveDB("users.get_by_id", func() error {
		u, ok, err = db.FetchOne[user.User](ctx, r.pool, query, args...)
		return err
	})

	return
}

// List returns every user by ascending id, an empty slice when there are none.
func (r *UsersRepo) List(ctx context.Context) (users []user.User, err error) {
	query, args, err := listUsersSQL()

	if err != nil {
		return
	}

	err = r.prom.ObserveDB("users.list", func() error {
		users, err = db.Fetch[user.User](ctx, r.pool, query, args...)
		return err
	})

	return
}

func insertUserSQL(req user.CreateUserRequest) (string, []any, error) {
	return psql.Insert("users").
		Columns("name", "email").
		Values(req.Name, req.Email).
		Suffix("RETURNING id, name, email").
		ToSql()
}

func selectUserByIDSQL(id int64) (string, []any, error) {
	return psql.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
}

func listUsersSQL() (string, []any, error) {
	return psql.Select(userColumns...).
		From("users").
		OrderBy("id ASC").
		ToSql()
}
