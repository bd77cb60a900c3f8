package app

import (
	"net"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Host                 string        // Listen address (default: 0.0.0.0, all interfaces)
	Port                 int           // HTTP server port (default: 5000)
	DataFile             string        // CSV dataset loaded at startup (default: ./BBA_Cleaned.csv)
	DatabaseFile         string        // SQLite database file (default: ./dpquery.db)
	PolicyFile           string        // Optional: TOML privacy policy; empty uses the built-in policy
	AuditRetention       time.Duration // How long query audit entries are kept (default: 7 days)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	TrustedProxies       string        // Comma separated CIDRs allowed to set X-Forwarded-For (default: none)
}

func LoadConfig() Config {
	return Config{
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                 getEnvIntOrDefault("PORT", 5000),
		DataFile:             getEnvOrDefault("DPQ_DATA_FILE", "BBA_Cleaned.csv"),
		DatabaseFile:         getEnvOrDefault("DPQ_DATABASE_FILE", "dpquery.db"),
		PolicyFile:           os.Getenv("DPQ_POLICY_FILE"),
		AuditRetention:       getEnvDurationOrDefault("DPQ_AUDIT_RETENTION", 7*24*time.Hour),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		TrustedProxies:       os.Getenv("TRUSTED_PROXIES"),
	}
}

// Addr is the host:port the HTTP server binds to.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
