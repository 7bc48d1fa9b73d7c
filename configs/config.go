package configs

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Simulator SimulatorConfig
	Trading   TradingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string
}

// SimulatorConfig holds price simulator tuning
type SimulatorConfig struct {
	TickInterval     time.Duration // ambient perturbation cadence
	MaxChangePercent float64       // ambient tick bound, e.g. 0.4
	GlideSteps       int           // discrete steps in a directed glide
	GlideDuration    time.Duration // default budget for a directed glide
	SettleDuration   time.Duration // secondary fluctuation after a glide
}

// TradingConfig holds order/balance defaults
type TradingConfig struct {
	DefaultBalance float64 // starting balance for new registrations
	BiasPercent    float64 // fixed closeout bias applied at settlement
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Simulator: SimulatorConfig{
			TickInterval:     getEnvDuration("SIM_TICK_INTERVAL", 3*time.Second),
			MaxChangePercent: getEnvFloat("SIM_MAX_CHANGE_PERCENT", 0.4),
			GlideSteps:       getEnvInt("SIM_GLIDE_STEPS", 20),
			GlideDuration:    getEnvDuration("SIM_GLIDE_DURATION", 20*time.Second),
			SettleDuration:   getEnvDuration("SIM_SETTLE_DURATION", 10*time.Second),
		},
		Trading: TradingConfig{
			DefaultBalance: getEnvFloat("DEFAULT_BALANCE", 0),
			BiasPercent:    getEnvFloat("SETTLEMENT_BIAS_PERCENT", 2.0),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
