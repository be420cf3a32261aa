package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/buildgrid/catalog-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName      string
	AllowOrigins     []string
	LatestHandler    *handlers.LatestHandler
	ComponentHandler *handlers.ComponentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/components/latest", cfg.LatestHandler.GetLatest)
		api.POST("/components/latest/batch", cfg.LatestHandler.GetLatestBatch)
		api.GET("/components/:id", cfg.ComponentHandler.GetByID)
	}

	return router
}
