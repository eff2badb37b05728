package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/twopc-order-coordinator/internal/config"
	"github.com/matheusmosca/twopc-order-coordinator/internal/httpserver"
	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
	"github.com/matheusmosca/twopc-order-coordinator/internal/telemetry"
)

const serviceName = "inventory-service"

var tracer = otel.Tracer(serviceName)

// Config vem de CONFIG_FILE (YAML) e depois das variáveis de ambiente
type Config struct {
	Port string         `yaml:"port"`
	Seed map[string]int `yaml:"seed"`
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

	repository := NewMemoryInventoryRepository()
	repository.Seed(cfg.Seed)
	log.Info().Interface("seed", cfg.Seed).Msg("📦 inventory seeded")

	useCase := NewInventoryUseCase(repository)

	r := httpserver.NewRouter(config.GetEnv("SERVICE_NAME", serviceName))
	registerRoutes(r, useCase)

	if err := httpserver.Run(ctx, r, cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func loadConfig() (Config, error) {
	cfg := Config{Port: "7050", Seed: map[string]int{}}
	if err := config.LoadFromEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Port = config.GetEnv("PORT", cfg.Port)

	seed, err := parseSeed(config.GetEnv("INVENTORY_SEED", ""))
	if err != nil {
		return cfg, err
	}
	if cfg.Seed == nil {
		cfg.Seed = map[string]int{}
	}
	for productID, quantity := range seed {
		cfg.Seed[productID] = quantity
	}
	return cfg, nil
}

// parseSeed reads "sku1=10,sku2=5".
func parseSeed(raw string) (map[string]int, error) {
	seed := map[string]int{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		productID, qty, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.Errorf("invalid seed entry %q", pair)
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil || quantity < 0 {
			return nil, errors.Errorf("invalid seed quantity in %q", pair)
		}
		seed[strings.TrimSpace(productID)] = quantity
	}
	return seed, nil
}
