package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes. A non-empty token enables bearer authentication.
func SetupRoutes(handlers *Handlers, token string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	api := router.Group("/api")
	api.Use(authenticate(token))
	{
		tasks := api.Group("/tasks")
		{
			tasks.GET("", handlers.ListTasksHandler)
			tasks.POST("", handlers.CreateTaskHandler)
			tasks.GET("/:id", handlers.GetTaskHandler)
			tasks.DELETE("/:id", handlers.DeleteTaskHandler)
		}

		api.GET("/users/me", handlers.GetProfileHandler)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

// authenticate rejects requests without the expected bearer token
func authenticate(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		c.Next()
	}
}
