package api

import (
	"time"

	"github.com/eleven-am/docshift/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// NewRouter wires every route onto a fresh engine.
func NewRouter(repo Repository) *gin.Engine {
	h := NewHandler(repo)

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders:   []string{"Content-Length", requestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", h.Health)

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/users", h.ListUsers)
	r.DELETE("/users/:id", h.DeleteUser)
	r.GET("/users/:id/todos", h.ListUserTodos)

	todos := r.Group("/todos")
	todos.POST("", h.CreateTodo)
	todos.GET("/:id", h.GetTodo)
	todos.PATCH("/:id", h.UpdateTodo)
	todos.DELETE("/:id", h.DeleteTodo)

	return r
}

// RequestID tags each request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog() gin.HandlerFunc {
	log := logger.HTTP()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetString(requestIDKey),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.WithFields(fields).Error("Request completed")
		case status >= 400:
			log.WithFields(fields).Warn("Request completed")
		default:
			log.WithFields(fields).Info("Request completed")
		}
	}
}
