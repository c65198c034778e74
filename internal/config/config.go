package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the trading client.
type Config struct {
	Port              int
	LogLevel          string
	MaxOrders         int
	OrderPhaseBudget  time.Duration
	CancelPhaseBudget time.Duration
	MinOrderInterval  time.Duration
	MaxOrderInterval  time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Load reads configuration from environment variables, applies
// defaults, and validates values. A .env file in the working
// directory is loaded first when present. Any invalid value is an
// error; configuration errors are fatal at startup, before any loop
// runs.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absent .env is not an error

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	maxOrders, err := getInt("MAX_ORDERS", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ORDERS: %w", err)
	}
	if maxOrders <= 0 {
		return nil, fmt.Errorf("invalid MAX_ORDERS: must be greater than 0")
	}

	orderPhaseBudget, err := getDuration("ORDER_PHASE_BUDGET", 300*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_PHASE_BUDGET: %w", err)
	}

	cancelPhaseBudget, err := getDuration("CANCEL_PHASE_BUDGET", 300*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid CANCEL_PHASE_BUDGET: %w", err)
	}

	minOrderInterval, err := getDuration("MIN_ORDER_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_ORDER_INTERVAL: %w", err)
	}

	maxOrderInterval, err := getDuration("MAX_ORDER_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ORDER_INTERVAL: %w", err)
	}
	if maxOrderInterval < minOrderInterval {
		return nil, fmt.Errorf("invalid MAX_ORDER_INTERVAL: must be >= MIN_ORDER_INTERVAL")
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:              port,
		LogLevel:          logLevel,
		MaxOrders:         maxOrders,
		OrderPhaseBudget:  orderPhaseBudget,
		CancelPhaseBudget: cancelPhaseBudget,
		MinOrderInterval:  minOrderInterval,
		MaxOrderInterval:  maxOrderInterval,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ShutdownTimeout:   shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
