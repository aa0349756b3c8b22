package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port     string
	Env      string
	SeedDemo bool
}

// PricingConfig holds the delivery fee tier values
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
}

// MySQLConfig holds the optional durable store configuration; an empty DSN
// means the in-memory store is used
type MySQLConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds the optional event publisher configuration; an empty
// address disables Redis fan-out
type RedisConfig struct {
	Addr         string
	EventChannel string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	Server      ServerConfig
	Pricing     PricingConfig
	MySQL       MySQLConfig
	Redis       RedisConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Load reads configuration from environment variables, with a .env file as
// an optional source.
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	threshold, err := getEnvAsDecimal("FREE_SHIPPING_THRESHOLD", decimal.NewFromInt(50000))
	if err != nil {
		return nil, err
	}
	fee, err := getEnvAsDecimal("DELIVERY_FEE", decimal.NewFromInt(3000))
	if err != nil {
		return nil, err
	}

	config := &Config{
		ServiceName: serviceName,
		Server: ServerConfig{
			Port:     getEnv("SERVER_PORT", "8080"),
			Env:      getEnv("APP_ENV", "development"),
			SeedDemo: getEnvAsBool("SEED_DEMO_DATA", false),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: threshold,
			DeliveryFee:           fee,
		},
		MySQL: MySQLConfig{
			DSN:          getEnv("MYSQL_DSN", ""),
			MaxOpenConns: getEnvAsInt("MYSQL_MAX_OPEN_CONNS", 50),
			MaxIdleConns: getEnvAsInt("MYSQL_MAX_IDLE_CONNS", 25),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", ""),
			EventChannel: getEnv("REDIS_EVENT_CHANNEL", "storefront:events"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
	}

	return config, nil
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as decimals
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value for %s: %w", key, err)
	}
	return value, nil
}
