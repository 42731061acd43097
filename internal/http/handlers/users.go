package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/userapi/internal/db"
	"github.com/geocoder89/userapi/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, bool, error)
	List(ctx context.Context) ([]user.User, error)
}

type UsersHandler struct {
	repo    UsersStore
	timeout time.Duration
}

// timeout bounds each database round-trip; zero leaves only the request context.
func NewUsersHandler(repo UsersStore, timeout time.Duration) *UsersHandler {
	return &UsersHandler{repo: repo, timeout: timeout}
}

func (h *UsersHandler) dbContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx.Request.Context())
	}

	return context.WithTimeout(ctx.Request.Context(), h.timeout)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	dbCtx, cancel := h.dbContext(ctx)
	defer cancel()

	u, err := h.repo.Create(dbCtx, req)

	if err != nil {
		if db.IsUniqueViolation(err) {
			RespondConflict(ctx, "email_taken", "A user with this email already exists")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "create user failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		RespondUnprocessable(ctx, "Invalid user id", gin.H{
			"fields": []FieldError{
				{Field: "id", Rule: "type", Message: "must be an integer"},
			},
		})
		return
	}

	dbCtx, cancel := h.dbContext(ctx)
	defer cancel()

	u, ok, err := h.repo.GetByID(dbCtx, id)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "get user failed", "err", err, "user_id", id)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	if !ok {
		RespondNotFound(ctx, "User not found")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	dbCtx, cancel := h.dbContext(ctx)
	defer cancel()

	users, err := h.repo.List(dbCtx)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list users failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	if users == nil {
		users = []user.User{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, users)
}
