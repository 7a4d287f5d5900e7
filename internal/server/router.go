package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/affirmpost-backend/internal/handlers"
)

type RouterConfig struct {
	GenerateHandler *handlers.GenerateHandler
	PostsHandler    *handlers.PostsHandler // nil when history is disabled
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/", handlers.HealthCheck)
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/generate", cfg.GenerateHandler.Generate)
	if cfg.PostsHandler != nil {
		router.GET("/posts", cfg.PostsHandler.ListRecent)
	}

	return router
}
