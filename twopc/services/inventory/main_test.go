package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	seed, err := parseSeed("sku1=10, sku2 = 5,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sku1": 10, "sku2": 5}, seed)

	_, err = parseSeed("sku1")
	assert.Error(t, err)

	_, err = parseSeed("sku1=-1")
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9999")
	t.Setenv("INVENTORY_SEED", "sku1=3")

	cfg, err := loadConfig()

	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 3, cfg.Seed["sku1"])
}
