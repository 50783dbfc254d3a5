// Package api serves the users and todos HTTP API over gin.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/eleven-am/docshift/internal/logger"
	"github.com/eleven-am/docshift/internal/models"
	"github.com/eleven-am/docshift/internal/store"
	"github.com/gin-gonic/gin"
)

// Repository is the record store the handlers talk to.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) (*models.User, error)

	CreateTodo(ctx context.Context, todo *models.Todo) error
	ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error)
	FindTodoByID(ctx context.Context, id string) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id string) (*models.Todo, error)

	Ping(ctx context.Context) error
}

var _ Repository = (*store.Store)(nil)

const msgInternal = "Internal Server Error"

// Handler holds the route handlers.
type Handler struct {
	repo Repository
	log  logger.Logger
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo, log: logger.HTTP()}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// fail maps a store error onto a response. notFound is the message used for
// a missing record.
func (h *Handler) fail(c *gin.Context, op string, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		abort(c, http.StatusBadRequest, "Invalid id")
	case errors.Is(err, store.ErrNotFound):
		abort(c, http.StatusNotFound, notFound)
	default:
		h.log.WithFields(map[string]interface{}{
			"operation":  op,
			"request_id": c.GetString(requestIDKey),
			"error":      err,
		}).Error("Request failed")
		abort(c, http.StatusInternalServerError, msgInternal)
	}
}

// Health reports whether the store is reachable.
func (h *Handler) Health(c *gin.Context) {
	if err := h.repo.Ping(c.Request.Context()); err != nil {
		h.log.WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
