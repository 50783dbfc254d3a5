package api

import (
	"net/http"
	"strings"

	"github.com/eleven-am/docshift/internal/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createTodoRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

const msgTodoNotFound = "Todo not found"

func (h *Handler) CreateTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || strings.TrimSpace(req.Title) == "" {
		abort(c, http.StatusBadRequest, "userId and title are required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid id")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.FindUserByID(ctx, req.UserID); err != nil {
		h.fail(c, "find user", err, msgUserNotFound)
		return
	}

	todo := &models.Todo{UserID: userID, Title: req.Title}
	if err := h.repo.CreateTodo(ctx, todo); err != nil {
		h.fail(c, "create todo", err, msgTodoNotFound)
		return
	}

	c.JSON(http.StatusCreated, todo)
}

func (h *Handler) ListUserTodos(c *gin.Context) {
	todos, err := h.repo.ListTodosByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "list todos", err, msgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (h *Handler) GetTodo(c *gin.Context) {
	todo, err := h.repo.FindTodoByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "find todo", err, msgTodoNotFound)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *Handler) UpdateTodo(c *gin.Context) {
	var patch models.TodoPatch
	if err := c.ShouldBindJSON(&patch); err != nil || patch.Empty() {
		abort(c, http.StatusBadRequest, "title or completed is required")
		return
	}

	todo, err := h.repo.UpdateTodo(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, "update todo", err, msgTodoNotFound)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *Handler) DeleteTodo(c *gin.Context) {
	todo, err := h.repo.DeleteTodo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "delete todo", err, msgTodoNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully", "todo": todo})
}
