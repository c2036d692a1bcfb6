package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBSource   string
	DBMaxConns int32
	Port       string
	Env        string
	LogLevel   string
	RabbitMQ   RabbitMQConfig
}

// RabbitMQConfig holds the messaging settings. An empty URL disables messaging.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	Queue    string
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the environment, after merging a local .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbSource := os.Getenv("DB_SOURCE")
	if dbSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required")
	}

	maxConns := int32(0)
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer, got %q", v)
		}
		maxConns = int32(n)
	}

	return &Config{
		DBSource:   dbSource,
		DBMaxConns: maxConns,
		Port:       getEnv("SERVER_PORT", "8080"),
		Env:        getEnv("ENVIRONMENT", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "ledgerbook.events"),
			Queue:    getEnv("RABBITMQ_QUEUE", "ledgerbook.notifications"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
