package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/twopc-order-coordinator/internal/config"
	"github.com/matheusmosca/twopc-order-coordinator/internal/httpserver"
	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
	"github.com/matheusmosca/twopc-order-coordinator/internal/telemetry"
)

const serviceName = "delivery-service"

var tracer = otel.Tracer(serviceName)

type Config struct {
	Port     string `yaml:"port"`
	Capacity int    `yaml:"capacity"`
}

func main() {
	logging.Setup(config.GetEnv("SERVICE_NAME", serviceName))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(ctx, config.GetEnv("SERVICE_NAME", serviceName))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down telemetry")
		}
	}()

	useCase := NewDeliveryUseCase(NewMemoryDeliveryRepository(), cfg.Capacity)
	log.Info().Int("capacity", cfg.Capacity).Msg("🚚 delivery schedule ready")

	r := httpserver.NewRouter(config.GetEnv("SERVICE_NAME", serviceName))
	registerRoutes(r, useCase)

	if err := httpserver.Run(ctx, r, cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func loadConfig() (Config, error) {
	cfg := Config{Port: "7070"}
	if err := config.LoadFromEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Port = config.GetEnv("PORT", cfg.Port)
	cfg.Capacity = config.GetEnvInt("DELIVERY_CAPACITY", cfg.Capacity)
	return cfg, nil
}
