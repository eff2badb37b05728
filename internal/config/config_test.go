package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port  string         `yaml:"port"`
	Seed  map[string]int `yaml:"seed"`
	Peers []struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	} `yaml:"peers"`
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TWOPC_TEST_VALUE", "abc")
	t.Setenv("TWOPC_TEST_BLANK", "   ")

	assert.Equal(t, "abc", GetEnv("TWOPC_TEST_VALUE", "def"))
	assert.Equal(t, "def", GetEnv("TWOPC_TEST_BLANK", "def"))
	assert.Equal(t, "def", GetEnv("TWOPC_TEST_MISSING", "def"))
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("TWOPC_INT", "42")
	t.Setenv("TWOPC_BAD_INT", "x")
	t.Setenv("TWOPC_FLOAT", "12.5")
	t.Setenv("TWOPC_BOOL", "yes")
	t.Setenv("TWOPC_DURATION", "750ms")
	t.Setenv("TWOPC_DURATION_MS", "2500")

	assert.Equal(t, 42, GetEnvInt("TWOPC_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TWOPC_BAD_INT", 1))
	assert.Equal(t, 12.5, GetEnvFloat("TWOPC_FLOAT", 0))
	assert.True(t, GetEnvBool("TWOPC_BOOL", false))
	assert.True(t, GetEnvBool("TWOPC_BOOL_MISSING", true))
	assert.Equal(t, 750*time.Millisecond, GetEnvDuration("TWOPC_DURATION", time.Second))
	assert.Equal(t, 2500*time.Millisecond, GetEnvDuration("TWOPC_DURATION_MS", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("TWOPC_DURATION_MISSING", time.Second))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	content := `
port: "9000"
seed:
  sku1: 10
  sku2: 3
peers:
  - name: inventory
    url: http://localhost:7050
  - name: payment
    url: http://localhost:8060
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var cfg sampleConfig
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, map[string]int{"sku1": 10, "sku2": 3}, cfg.Seed)
	require.Len(t, cfg.Peers, 2)
	assert.Equal(t, "inventory", cfg.Peers[0].Name)
	assert.Equal(t, "http://localhost:8060", cfg.Peers[1].URL)
}

func TestLoadFile_EmptyPathKeepsDefaults(t *testing.T) {
	cfg := sampleConfig{Port: "7050"}
	require.NoError(t, LoadFile("", &cfg))
	assert.Equal(t, "7050", cfg.Port)
}

func TestLoadFile_Errors(t *testing.T) {
	var cfg sampleConfig
	err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	err = LoadFile(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}
