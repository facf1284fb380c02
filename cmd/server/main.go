// @title           AI Image Enhancer Relay
// @version         1.0.0
// @description     Stateless relay that forwards one uploaded image and a creativity level to Gemini generateContent and returns the enhanced image.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-image-enhancer/internal/config"
	"ai-image-enhancer/internal/logging"
	"ai-image-enhancer/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LogLevel, cfg.Environment != "production")

	router, err := server.NewRouter(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize router")
	}

	// Writes may legitimately take as long as the whole request ceiling.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Environment).
		Dur("gemini_timeout", cfg.GeminiTimeout).
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("Relay starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	log.Info().Msg("Server exited")
}
