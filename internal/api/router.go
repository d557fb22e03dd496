package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/recipe-comments-api/internal/config"
	"github.com/recipe-comments-api/internal/service"
	"github.com/recipe-comments-api/internal/session"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, resolver session.Resolver, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(requestIDMiddleware())
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(identityMiddleware(resolver))

	// Handlers
	commentHandler := NewCommentHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(services))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/recipe/:id/comments", commentHandler.ListComments)
		apiGroup.POST("/recipe/:id/comments", commentHandler.CreateComment)

		comments := apiGroup.Group("/comments")
		{
			comments.PATCH("/:id", commentHandler.EditComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
			comments.POST("/:id/vote", commentHandler.Vote)
		}
	}

	return router
}

// healthCheck returns the health status along with the stored comment count
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "recipe-comments-api",
		}

		count, err := services.Comment.Count(c.Request.Context())
		if err != nil {
			response["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response["comments"] = count
		c.JSON(http.StatusOK, response)
	}
}
