// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries everything the server binary needs to wire itself up.
// DatabaseURL and RedisAddr may be empty; the matching subsystem is then
// skipped and the engines run in memory only.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel string

	RoomIdleTimeout  time.Duration
	CleanupInterval  time.Duration
	AutoSaveInterval time.Duration
	RestoreWindow    time.Duration
}

// Load reads .env if present, then the environment, falling back to
// defaults suited to local development.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to read .env file")
	}
	return Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		CacheTTL:      getDuration("CACHE_TTL", 24*time.Hour),

		LogLevel: getString("LOG_LEVEL", "info"),

		RoomIdleTimeout:  getDuration("ROOM_IDLE_TIMEOUT", time.Hour),
		CleanupInterval:  getDuration("CLEANUP_INTERVAL", 5*time.Minute),
		AutoSaveInterval: getDuration("AUTOSAVE_INTERVAL", 30*time.Second),
		RestoreWindow:    getDuration("RESTORE_WINDOW", time.Hour),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using %d", v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid duration %q, using %s", v, fallback)
		return fallback
	}
	return d
}
