package api

import (
	"net/http"

	"github.com/eleven-am/docshift/internal/models"
	"github.com/eleven-am/docshift/internal/store"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	DOB      string `json:"dob"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) complete() bool {
	return r.Name != "" && r.Gender != "" && r.DOB != "" && r.Email != "" && r.Password != ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const msgUserNotFound = "User not found"

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.complete() {
		abort(c, http.StatusBadRequest, "All fields are required")
		return
	}

	ctx := c.Request.Context()

	_, err := h.repo.FindUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		abort(c, http.StatusConflict, "User with this email already exists")
		return
	case !store.IsNotFound(err):
		h.fail(c, "find user", err, msgUserNotFound)
		return
	}

	user := &models.User{
		Name:     req.Name,
		Gender:   req.Gender,
		DOB:      req.DOB,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := h.repo.CreateUser(ctx, user); err != nil {
		if store.IsDuplicateKey(err) {
			abort(c, http.StatusConflict, "User with this email already exists")
			return
		}
		h.fail(c, "create user", err, msgUserNotFound)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		abort(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.repo.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, "find user", err, msgUserNotFound)
		return
	}

	if user.Password != req.Password {
		abort(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": user})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.repo.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, "list users", err, msgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	user, err := h.repo.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "delete user", err, msgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully", "user": user})
}
