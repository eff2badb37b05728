package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearOrdersEnv(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "PORT", "PARTICIPANT_TIMEOUT", "PREPARE_PARALLEL", "PAYMENT_DEFAULT_ACCOUNT",
		"KAFKA_BROKERS", "ORDER_EVENTS_TOPIC", "INVENTORY_SERVICE_URL", "DELIVERY_SERVICE_URL", "PAYMENT_SERVICE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearOrdersEnv(t)

	cfg, err := loadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ParticipantTimeout)
	assert.Equal(t, 10, cfg.DefaultAccount)
	assert.False(t, cfg.PrepareParallel)
	require.Len(t, cfg.Participants, 3)
	assert.Equal(t, "inventory", cfg.Participants[0].Name)
	assert.Equal(t, "delivery", cfg.Participants[1].Name)
	assert.Equal(t, "payment", cfg.Participants[2].Name)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
participant_timeout: 750ms
prepare_parallel: true
participants:
  - name: payment
    url: http://payment:8060
  - name: Inventory
    url: http://inventory:7050
`), 0o600))
	clearOrdersEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("INVENTORY_SERVICE_URL", "http://override:7050")
	t.Setenv("PAYMENT_DEFAULT_ACCOUNT", "77")

	cfg, err := loadConfig()

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.ParticipantTimeout)
	assert.True(t, cfg.PrepareParallel)
	assert.Equal(t, 77, cfg.DefaultAccount)
	assert.Equal(t, []ParticipantConfig{
		{Name: "payment", URL: "http://payment:8060"},
		{Name: "inventory", URL: "http://override:7050"},
	}, cfg.Participants)
}

func TestBuildParticipants_KeepsDeclaredOrder(t *testing.T) {
	cfg := defaultConfig()
	cfg.Participants = []ParticipantConfig{
		{Name: "payment", URL: "http://p"},
		{Name: "inventory", URL: "http://i"},
		{Name: "delivery", URL: "http://d"},
	}

	processes, err := buildParticipants(cfg)

	require.NoError(t, err)
	require.Len(t, processes, 3)
	assert.Equal(t, "payment", processes[0].Name())
	assert.Equal(t, "inventory", processes[1].Name())
	assert.Equal(t, "delivery", processes[2].Name())
}

func TestBuildParticipants_Errors(t *testing.T) {
	cases := map[string][]ParticipantConfig{
		"empty":     nil,
		"unknown":   {{Name: "shipping", URL: "http://s"}},
		"duplicate": {{Name: "payment", URL: "http://p"}, {Name: "payment", URL: "http://p"}},
		"no url":    {{Name: "payment"}},
	}
	for name, participants := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Participants = participants
			_, err := buildParticipants(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewOutcomePublisher_NoopWithoutBrokers(t *testing.T) {
	cfg := defaultConfig()

	assert.IsType(t, noopPublisher{}, newOutcomePublisher(cfg))

	cfg.KafkaBrokers = "localhost:9092"
	publisher := newOutcomePublisher(cfg)
	assert.IsType(t, &KafkaOutcomePublisher{}, publisher)
	require.NoError(t, publisher.Close())
}
