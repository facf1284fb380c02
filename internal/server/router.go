package server

import (
	"fmt"

	"ai-image-enhancer/internal/config"
	"ai-image-enhancer/internal/gemini"
	"ai-image-enhancer/internal/handlers"
	"ai-image-enhancer/internal/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the relay routes. Both the standalone server and the
// Lambda entrypoint serve this engine.
func NewRouter(cfg *config.Config) (*gin.Engine, error) {
	geminiClient, err := gemini.NewClient(cfg.GeminiAPIBaseURL, cfg.GeminiTimeout, cfg.GeminiCAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return NewRouterWithClient(cfg, geminiClient), nil
}

func NewRouterWithClient(cfg *config.Config, geminiClient *gemini.Client) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// Health check (no ceiling)
	router.GET("/health", handlers.HealthHandler)

	enhanceHandler := handlers.NewEnhanceHandler(geminiClient, cfg.MaxUploadBytes)
	deadline := middleware.Deadline(cfg.RequestTimeout)

	// The relay was historically served at the site root; keep that alias.
	router.POST("/", deadline, enhanceHandler.Enhance)

	api := router.Group("/api/v1")
	api.Use(deadline)
	api.POST("/enhance", enhanceHandler.Enhance)

	return router
}
