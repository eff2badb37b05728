package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/twopc-order-coordinator/internal/config"
	"github.com/matheusmosca/twopc-order-coordinator/internal/httpserver"
	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
	"github.com/matheusmosca/twopc-order-coordinator/internal/telemetry"
)

const serviceName = "orders-service"

var tracer = otel.Tracer(serviceName)

// ParticipantConfig aponta um participante para a URL do seu ledger
type ParticipantConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	Port               string              `yaml:"port"`
	Participants       []ParticipantConfig `yaml:"participants"`
	ParticipantTimeout time.Duration       `yaml:"participant_timeout"`
	PrepareParallel    bool                `yaml:"prepare_parallel"`
	DefaultAccount     int                 `yaml:"default_account"`
	KafkaBrokers       string              `yaml:"kafka_brokers"`
	OrderEventsTopic   string              `yaml:"order_events_topic"`
}

// participantURLEnv permite sobrescrever a URL de cada participante
var participantURLEnv = map[string]string{
	"inventory": "INVENTORY_SERVICE_URL",
	"delivery":  "DELIVERY_SERVICE_URL",
	"payment":   "PAYMENT_SERVICE_URL",
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

	processes, err := buildParticipants(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid participant configuration")
	}

	publisher := newOutcomePublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("error closing outcome publisher")
		}
	}()

	coordinator := NewCoordinator(NewMemoryOrderRepository(), processes,
		WithParticipantTimeout(cfg.ParticipantTimeout),
		WithParallelPrepare(cfg.PrepareParallel),
		WithDefaultAccount(cfg.DefaultAccount),
		WithPublisher(publisher),
	)

	r := httpserver.NewRouter(config.GetEnv("SERVICE_NAME", serviceName))
	registerRoutes(r, coordinator)

	if err := httpserver.Run(ctx, r, cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func defaultConfig() Config {
	return Config{
		Port: "8090",
		Participants: []ParticipantConfig{
			{Name: "inventory", URL: "http://localhost:7050"},
			{Name: "delivery", URL: "http://localhost:7070"},
			{Name: "payment", URL: "http://localhost:8060"},
		},
		ParticipantTimeout: defaultParticipantTimeout,
		DefaultAccount:     10,
		OrderEventsTopic:   "orders.resolved",
	}
}

func loadConfig() (Config, error) {
	cfg := defaultConfig()
	if err := config.LoadFromEnv(&cfg); err != nil {
		return cfg, err
	}

	cfg.Port = config.GetEnv("PORT", cfg.Port)
	cfg.ParticipantTimeout = config.GetEnvDuration("PARTICIPANT_TIMEOUT", cfg.ParticipantTimeout)
	cfg.PrepareParallel = config.GetEnvBool("PREPARE_PARALLEL", cfg.PrepareParallel)
	cfg.DefaultAccount = config.GetEnvInt("PAYMENT_DEFAULT_ACCOUNT", cfg.DefaultAccount)
	cfg.KafkaBrokers = config.GetEnv("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.OrderEventsTopic = config.GetEnv("ORDER_EVENTS_TOPIC", cfg.OrderEventsTopic)

	for i := range cfg.Participants {
		name := strings.ToLower(strings.TrimSpace(cfg.Participants[i].Name))
		cfg.Participants[i].Name = name
		if key, ok := participantURLEnv[name]; ok {
			cfg.Participants[i].URL = config.GetEnv(key, cfg.Participants[i].URL)
		}
	}
	return cfg, nil
}

// buildParticipants cria os clientes na ordem declarada na configuração
func buildParticipants(cfg Config) ([]Process, error) {
	if len(cfg.Participants) == 0 {
		return nil, errors.New("no participants configured")
	}

	seen := make(map[string]bool, len(cfg.Participants))
	processes := make([]Process, 0, len(cfg.Participants))
	for _, participant := range cfg.Participants {
		if seen[participant.Name] {
			return nil, errors.Errorf("participant %q declared twice", participant.Name)
		}
		seen[participant.Name] = true

		if participant.URL == "" {
			return nil, errors.Errorf("participant %q has no url", participant.Name)
		}

		switch participant.Name {
		case "inventory":
			processes = append(processes, NewInventoryClient(participant.URL, cfg.ParticipantTimeout))
		case "delivery":
			processes = append(processes, NewDeliveryClient(participant.URL, cfg.ParticipantTimeout))
		case "payment":
			processes = append(processes, NewPaymentClient(participant.URL, cfg.ParticipantTimeout))
		default:
			return nil, errors.Errorf("unknown participant %q", participant.Name)
		}
		log.Info().Str("participant", participant.Name).Str("url", participant.URL).Msg("🔗 participant registered")
	}
	return processes, nil
}

type closingPublisher interface {
	OutcomePublisher
	Close() error
}

func newOutcomePublisher(cfg Config) closingPublisher {
	brokers := parseBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS not set, order outcomes will not be published")
		return noopPublisher{}
	}
	log.Info().Strs("brokers", brokers).Str("topic", cfg.OrderEventsTopic).Msg("📣 publishing order outcomes to kafka")
	return NewKafkaOutcomePublisher(brokers, cfg.OrderEventsTopic)
}
