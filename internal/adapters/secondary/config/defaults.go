package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// GetDefaultConfig returns the default configuration with environment
// overrides applied on top of entities.DefaultConfig.
func GetDefaultConfig() *entities.Config {
	config := entities.DefaultConfig()

	config.Server.Host = getEnvOrDefault("TOBOGGAN_HOST", config.Server.Host)
	config.Server.Port = getEnvIntOrDefault("TOBOGGAN_PORT", config.Server.Port)
	config.Server.ShutdownTimeoutSecs = getEnvIntOrDefault("TOBOGGAN_SHUTDOWN_TIMEOUT", config.Server.ShutdownTimeoutSecs)
	config.Server.CORSOrigins = getEnvSliceOrDefault("TOBOGGAN_CORS_ORIGINS", config.Server.CORSOrigins)

	config.Client.MaxClients = getEnvIntOrDefault("TOBOGGAN_MAX_CLIENTS", config.Client.MaxClients)
	config.Client.HeartbeatIntervalSecs = getEnvIntOrDefault("TOBOGGAN_HEARTBEAT_INTERVAL", config.Client.HeartbeatIntervalSecs)
	config.Client.ConnectionTimeoutSecs = getEnvIntOrDefault("TOBOGGAN_CONNECTION_TIMEOUT", config.Client.ConnectionTimeoutSecs)
	config.Client.CleanupIntervalSecs = getEnvIntOrDefault("TOBOGGAN_CLEANUP_INTERVAL", config.Client.CleanupIntervalSecs)

	config.Deck.Path = getEnvOrDefault("TOBOGGAN_DECK_PATH", config.Deck.Path)
	config.Deck.Watch = getEnvBoolOrDefault("TOBOGGAN_WATCH", config.Deck.Watch)

	config.Logging.Level = getEnvOrDefault("TOBOGGAN_LOG_LEVEL", config.Logging.Level)
	config.Logging.Verbose = getEnvBoolOrDefault("TOBOGGAN_LOG_VERBOSE", config.Logging.Verbose)

	return &config
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSliceOrDefault returns environment variable as a comma-split slice, or default
func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
