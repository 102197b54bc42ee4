package config_test

import (
	"testing"
	"time"

	"github.com/cxd309/minimetro/internal/config"
	"github.com/cxd309/minimetro/internal/network"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "SEED", "TICK_RATE", "MAX_TRAINS", "PORT", "SQLITE_DATABASE", "RIDER_PATIENCE"} {
		t.Setenv(key, "")
	}
	cfg := config.Load()

	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, uint64(1), cfg.Seed)
	assert.Equal(t, "8081", cfg.Port)
	assert.Empty(t, cfg.DatabasePath)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, network.DefaultParams(), cfg.Params())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED", "12345")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("MAX_TRAINS", "3")
	t.Setenv("RIDER_PATIENCE", "12.5")
	t.Setenv("SQLITE_DATABASE", "/tmp/runs.db")
	t.Setenv("START_STATIONS", "not-a-number")

	cfg := config.Load()
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, uint64(12345), cfg.Seed)
	assert.Equal(t, "/tmp/runs.db", cfg.DatabasePath)
	assert.Equal(t, 3, cfg.StartStations, "unparsable values fall back to the default")

	p := cfg.Params()
	assert.Equal(t, 30.0, p.TickRate)
	assert.Equal(t, 3, p.MaxTrains)
	assert.Equal(t, 12.5, p.Station.Patience)
}
