package app

import (
	"os"
	"strings"
	"time"
)

// Config описывает настройки запуска приложения.
type Config struct {
	MetricsAddr        string
	PostgresDSN        string
	KafkaBrokers       string
	OutboxPollInterval time.Duration
}

// DefaultConfig возвращает базовые настройки.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:        ":9090",
		OutboxPollInterval: time.Second,
	}
}

// ReadConfig собирает конфигурацию из переменных окружения поверх
// значений по умолчанию.
func ReadConfig() Config {
	cfg := DefaultConfig()

	if addr := strings.TrimSpace(os.Getenv("CAFE_METRICS_ADDR")); addr != "" {
		cfg.MetricsAddr = addr
	}
	cfg.PostgresDSN = strings.TrimSpace(os.Getenv("CAFE_POSTGRES_DSN"))
	cfg.KafkaBrokers = strings.TrimSpace(os.Getenv("CAFE_KAFKA_BROKERS"))

	if raw := strings.TrimSpace(os.Getenv("CAFE_OUTBOX_POLL_INTERVAL")); raw != "" {
		if interval, err := time.ParseDuration(raw); err == nil && interval > 0 {
			cfg.OutboxPollInterval = interval
		}
	}

	return cfg
}
