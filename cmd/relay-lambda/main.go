// Command relay-lambda serves the enhancement relay behind an API Gateway
// HTTP API (payload format 2.0).
package main

import (
	"ai-image-enhancer/internal/config"
	"ai-image-enhancer/internal/logging"
	"ai-image-enhancer/internal/server"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LogLevel, false)

	router, err := server.NewRouter(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize router")
	}

	log.Info().Msg("Relay Lambda initialized")
	adapter := httpadapter.NewV2(router)
	lambda.Start(adapter.ProxyWithContext)
}
