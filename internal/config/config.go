// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cxd309/minimetro/internal/network"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the simulation binaries.
type Config struct {
	// Logging
	LogLevel logrus.Level

	// Simulation
	Seed                 uint64
	TickRate             float64
	StartStations        int
	MaxStations          int
	MaxTrains            int
	StationSpawnInterval float64
	StationLimit         int
	RiderSpawnInterval   float64
	Patience             float64

	// Run recorder
	DatabasePath string

	// HTTP server
	Port           string
	AllowedOrigins []string
	SessionTTL     time.Duration
}

// Load reads configuration from environment variables with defaults matching
// the standard game.
func Load() *Config {
	defaults := network.DefaultParams()
	return &Config{
		LogLevel: getEnvLevel("LOG_LEVEL", logrus.InfoLevel),

		Seed:                 getEnvUint("SEED", 1),
		TickRate:             getEnvFloat("TICK_RATE", defaults.TickRate),
		StartStations:        getEnvInt("START_STATIONS", 3),
		MaxStations:          getEnvInt("MAX_STATIONS", defaults.MaxStations),
		MaxTrains:            getEnvInt("MAX_TRAINS", defaults.MaxTrains),
		StationSpawnInterval: getEnvFloat("STATION_SPAWN_INTERVAL", defaults.StationSpawnInterval),
		StationLimit:         getEnvInt("STATION_LIMIT", defaults.Station.Limit),
		RiderSpawnInterval:   getEnvFloat("RIDER_SPAWN_INTERVAL", defaults.Station.SpawnInterval),
		Patience:             getEnvFloat("RIDER_PATIENCE", defaults.Station.Patience),

		DatabasePath: getEnv("SQLITE_DATABASE", ""),

		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:5173")},
		SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
	}
}

// Params applies the simulation settings on top of the default network
// parameters.
func (c *Config) Params() network.Params {
	p := network.DefaultParams()
	p.TickRate = c.TickRate
	p.MaxStations = c.MaxStations
	p.MaxTrains = c.MaxTrains
	p.StationSpawnInterval = c.StationSpawnInterval
	p.Station.Limit = c.StationLimit
	p.Station.SpawnInterval = c.RiderSpawnInterval
	p.Station.Patience = c.Patience
	return p
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil && floatValue > 0 {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvLevel(key string, defaultValue logrus.Level) logrus.Level {
	if value := os.Getenv(key); value != "" {
		if level, err := logrus.ParseLevel(value); err == nil {
			return level
		}
	}
	return defaultValue
}
