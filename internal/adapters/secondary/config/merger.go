package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
	"github.com/tobogganhq/toboggan/internal/domain/ports"
)

// ConfigMerger implements the ConfigMerger interface
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Merge merges multiple configurations with later configs taking precedence
func (m *ConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	if len(configs) == 0 {
		return GetDefaultConfig()
	}

	result := deepCopy(configs[0])

	for i := 1; i < len(configs); i++ {
		if configs[i] != nil {
			m.mergeInto(result, configs[i])
		}
	}

	return result
}

// ApplyFlags applies CLI flag overrides to a configuration
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}
	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}
	if timeout, ok := flags["shutdown-timeout"].(int); ok && timeout > 0 {
		result.Server.ShutdownTimeoutSecs = timeout
	}
	if origins, ok := flags["cors-origins"].([]string); ok && len(origins) > 0 {
		result.Server.CORSOrigins = origins
	}

	if maxClients, ok := flags["max-clients"].(int); ok && maxClients > 0 {
		result.Client.MaxClients = maxClients
	}
	if heartbeat, ok := flags["heartbeat-interval"].(int); ok && heartbeat > 0 {
		result.Client.HeartbeatIntervalSecs = heartbeat
	}
	if connTimeout, ok := flags["connection-timeout"].(int); ok && connTimeout > 0 {
		result.Client.ConnectionTimeoutSecs = connTimeout
	}
	if cleanup, ok := flags["cleanup-interval"].(int); ok && cleanup > 0 {
		result.Client.CleanupIntervalSecs = cleanup
	}

	if deckPath, ok := flags["deck-path"].(string); ok && deckPath != "" {
		result.Deck.Path = deckPath
	}
	if watch, ok := flags["watch"].(bool); ok {
		result.Deck.Watch = watch
	}
	if publicDir, ok := flags["public-dir"].(string); ok && publicDir != "" {
		result.Deck.PublicDir = &publicDir
	}

	if level, ok := flags["log-level"].(string); ok && level != "" {
		result.Logging.Level = level
	}
	if verbose, ok := flags["verbose"].(bool); ok {
		result.Logging.Verbose = verbose
	}

	return result
}

// ApplyEnvVars applies environment variable overrides to a configuration
func (m *ConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	result := deepCopy(config)

	if host := os.Getenv("TOBOGGAN_HOST"); host != "" {
		result.Server.Host = host
	}
	if portStr := os.Getenv("TOBOGGAN_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			result.Server.Port = port
		}
	}
	if originsStr := os.Getenv("TOBOGGAN_CORS_ORIGINS"); originsStr != "" {
		result.Server.CORSOrigins = strings.Split(originsStr, ",")
	}

	if maxClientsStr := os.Getenv("TOBOGGAN_MAX_CLIENTS"); maxClientsStr != "" {
		if maxClients, err := strconv.Atoi(maxClientsStr); err == nil && maxClients > 0 {
			result.Client.MaxClients = maxClients
		}
	}

	if deckPath := os.Getenv("TOBOGGAN_DECK_PATH"); deckPath != "" {
		result.Deck.Path = deckPath
	}
	if watchStr := os.Getenv("TOBOGGAN_WATCH"); watchStr != "" {
		if watch, err := strconv.ParseBool(watchStr); err == nil {
			result.Deck.Watch = watch
		}
	}

	if level := os.Getenv("TOBOGGAN_LOG_LEVEL"); level != "" {
		result.Logging.Level = level
	}
	if verboseStr := os.Getenv("TOBOGGAN_LOG_VERBOSE"); verboseStr != "" {
		if verbose, err := strconv.ParseBool(verboseStr); err == nil {
			result.Logging.Verbose = verbose
		}
	}

	return result
}

// mergeInto merges source configuration into target configuration. Zero
// values in source are treated as "not set" and leave target untouched,
// same limitation the teacher's merger had: TOML can't distinguish a
// false/0 that was explicitly set from one that was simply omitted.
func (m *ConfigMerger) mergeInto(target, source *entities.Config) {
	if source.Server.Host != "" {
		target.Server.Host = source.Server.Host
	}
	if source.Server.Port != 0 {
		target.Server.Port = source.Server.Port
	}
	if source.Server.ShutdownTimeoutSecs != 0 {
		target.Server.ShutdownTimeoutSecs = source.Server.ShutdownTimeoutSecs
	}
	if source.Server.Environment != "" {
		target.Server.Environment = source.Server.Environment
	}
	if len(source.Server.CORSOrigins) > 0 {
		target.Server.CORSOrigins = append([]string(nil), source.Server.CORSOrigins...)
	}

	if source.Client.MaxClients != 0 {
		target.Client.MaxClients = source.Client.MaxClients
	}
	if source.Client.HeartbeatIntervalSecs != 0 {
		target.Client.HeartbeatIntervalSecs = source.Client.HeartbeatIntervalSecs
	}
	if source.Client.ConnectionTimeoutSecs != 0 {
		target.Client.ConnectionTimeoutSecs = source.Client.ConnectionTimeoutSecs
	}
	if source.Client.CleanupIntervalSecs != 0 {
		target.Client.CleanupIntervalSecs = source.Client.CleanupIntervalSecs
	}

	if source.Deck.Path != "" {
		target.Deck.Path = source.Deck.Path
	}
	if source.Deck.Watch {
		target.Deck.Watch = true
	}
	if source.Deck.PublicDir != nil {
		dir := *source.Deck.PublicDir
		target.Deck.PublicDir = &dir
	}

	if source.Logging.Level != "" {
		target.Logging.Level = source.Logging.Level
	}
	if source.Logging.Verbose {
		target.Logging.Verbose = true
	}
}

// deepCopy creates a deep copy of a configuration
func deepCopy(src *entities.Config) *entities.Config {
	if src == nil {
		return nil
	}

	dst := &entities.Config{
		Server: entities.ServerConfig{
			Host:                src.Server.Host,
			Port:                src.Server.Port,
			ShutdownTimeoutSecs: src.Server.ShutdownTimeoutSecs,
			Environment:         src.Server.Environment,
		},
		Client:  src.Client,
		Logging: src.Logging,
		Deck: entities.DeckConfig{
			Path:  src.Deck.Path,
			Watch: src.Deck.Watch,
		},
	}

	if src.Server.CORSOrigins != nil {
		dst.Server.CORSOrigins = make([]string, len(src.Server.CORSOrigins))
		copy(dst.Server.CORSOrigins, src.Server.CORSOrigins)
	}

	if src.Deck.PublicDir != nil {
		dir := *src.Deck.PublicDir
		dst.Deck.PublicDir = &dir
	}

	return dst
}

// Ensure ConfigMerger implements ports.ConfigMerger
var _ ports.ConfigMerger = (*ConfigMerger)(nil)
