package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all settings, read from environment variables with
// defaults. BOT_TOKEN is the only required key.
type Config struct {
	BotToken string // BOT_TOKEN

	RzdBaseURL  string        // RZD_BASE_URL
	HTTPTimeout time.Duration // HTTP_TIMEOUT, per provider call

	CheckInterval     time.Duration // CHECK_INTERVAL, between refresh sweeps
	CheckInitialDelay time.Duration // CHECK_INITIAL_DELAY, before the first sweep

	LogLevel  string // LOG_LEVEL: debug|info|warn|error
	LogPretty bool   // LOG_PRETTY: console writer for dev
}

func loadConfig() (Config, error) {
	cfg := Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		RzdBaseURL:        getenv("RZD_BASE_URL", defaultBaseURL),
		HTTPTimeout:       getdur("HTTP_TIMEOUT", 30*time.Second),
		CheckInterval:     getdur("CHECK_INTERVAL", 30*time.Minute),
		CheckInitialDelay: getdur("CHECK_INITIAL_DELAY", 10*time.Second),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:         getbool("LOG_PRETTY", false),
	}

	if cfg.BotToken == "" {
		return Config{}, errors.New("BOT_TOKEN is not set")
	}
	if cfg.CheckInterval <= 0 {
		return Config{}, errors.New("CHECK_INTERVAL must be positive")
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, errors.New("HTTP_TIMEOUT must be positive")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
