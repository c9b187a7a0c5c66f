package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOMLLoader_LoadGlobal(t *testing.T) {
	t.Run("creates config on first run", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		globalPath := filepath.Join(tmpDir, "config.toml")
		loader := &TOMLLoader{
			globalPath: globalPath,
			localName:  "toboggan.toml",
		}

		ctx := context.Background()
		config, err := loader.LoadGlobal(ctx)
		require.NoError(t, err)
		assert.NotNil(t, config)

		_, err = os.Stat(globalPath)
		assert.NoError(t, err)

		assert.Equal(t, "127.0.0.1", config.Server.Host)
		assert.Equal(t, 8080, config.Server.Port)
		assert.Equal(t, 100, config.Client.MaxClients)
		assert.Equal(t, 30, config.Client.HeartbeatIntervalSecs)
	})

	t.Run("loads existing config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		globalPath := filepath.Join(tmpDir, "config.toml")

		configContent := `
[server]
host = "0.0.0.0"
port = 9000

[client]
max_clients = 50
heartbeat_interval_secs = 30
connection_timeout_secs = 60
cleanup_interval_secs = 60

[logging]
level = "debug"
`
		err = os.WriteFile(globalPath, []byte(configContent), 0644)
		require.NoError(t, err)

		loader := &TOMLLoader{
			globalPath: globalPath,
			localName:  "toboggan.toml",
		}

		ctx := context.Background()
		config, err := loader.LoadGlobal(ctx)
		require.NoError(t, err)
		assert.NotNil(t, config)

		assert.Equal(t, "0.0.0.0", config.Server.Host)
		assert.Equal(t, 9000, config.Server.Port)
		assert.Equal(t, 50, config.Client.MaxClients)
		assert.Equal(t, "debug", config.Logging.Level)
	})

	t.Run("fails with invalid TOML", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		globalPath := filepath.Join(tmpDir, "config.toml")

		invalidContent := `
[server
host = "localhost"
`
		err = os.WriteFile(globalPath, []byte(invalidContent), 0644)
		require.NoError(t, err)

		loader := &TOMLLoader{
			globalPath: globalPath,
			localName:  "toboggan.toml",
		}

		ctx := context.Background()
		_, err = loader.LoadGlobal(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parsing TOML")
	})

	t.Run("fails with invalid config values", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		globalPath := filepath.Join(tmpDir, "config.toml")

		configContent := `
[server]
port = -1
`
		err = os.WriteFile(globalPath, []byte(configContent), 0644)
		require.NoError(t, err)

		loader := &TOMLLoader{
			globalPath: globalPath,
			localName:  "toboggan.toml",
		}

		ctx := context.Background()
		_, err = loader.LoadGlobal(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})
}

func TestTOMLLoader_LoadLocal(t *testing.T) {
	t.Run("loads existing local config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		localPath := filepath.Join(tmpDir, "toboggan.toml")

		configContent := `
[server]
port = 4000

[client]
max_clients = 10
heartbeat_interval_secs = 30
connection_timeout_secs = 60
cleanup_interval_secs = 60
`
		err = os.WriteFile(localPath, []byte(configContent), 0644)
		require.NoError(t, err)

		loader := &TOMLLoader{
			globalPath: "unused",
			localName:  "toboggan.toml",
		}

		ctx := context.Background()
		config, err := loader.LoadLocal(ctx, tmpDir)
		require.NoError(t, err)
		assert.NotNil(t, config)

		assert.Equal(t, 4000, config.Server.Port)
		assert.Equal(t, 10, config.Client.MaxClients)
	})

	t.Run("returns nil for non-existent local config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		loader := &TOMLLoader{
			globalPath: "unused",
			localName:  "toboggan.toml",
		}

		ctx := context.Background()
		config, err := loader.LoadLocal(ctx, tmpDir)
		require.NoError(t, err)
		assert.Nil(t, config)
	})

	t.Run("fails with invalid local config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		localPath := filepath.Join(tmpDir, "toboggan.toml")

		configContent := `
[server]
port = 70000
`
		err = os.WriteFile(localPath, []byte(configContent), 0644)
		require.NoError(t, err)

		loader := &TOMLLoader{
			globalPath: "unused",
			localName:  "toboggan.toml",
		}

		ctx := context.Background()
		_, err = loader.LoadLocal(ctx, tmpDir)
		assert.Error(t, err)
	})
}

func TestTOMLLoader_CreateDefaults(t *testing.T) {
	t.Run("creates default config file", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		configPath := filepath.Join(tmpDir, "nested", "config.toml")
		loader := NewTOMLLoader()

		ctx := context.Background()
		err = loader.CreateDefaults(ctx, configPath)
		require.NoError(t, err)

		_, err = os.Stat(configPath)
		assert.NoError(t, err)

		dir := filepath.Dir(configPath)
		_, err = os.Stat(dir)
		assert.NoError(t, err)

		config, err := loader.loadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", config.Server.Host)
		assert.Equal(t, 8080, config.Server.Port)
	})

	t.Run("fails with permission error", func(t *testing.T) {
		configPath := "/root/config.toml"
		loader := NewTOMLLoader()

		ctx := context.Background()
		err := loader.CreateDefaults(ctx, configPath)
		assert.Error(t, err)
	})
}

func TestTOMLLoader_GetPaths(t *testing.T) {
	t.Run("returns correct global path", func(t *testing.T) {
		loader := NewTOMLLoader()
		globalPath := loader.GetGlobalPath()

		assert.Contains(t, globalPath, ".config")
		assert.Contains(t, globalPath, "toboggan")
		assert.Contains(t, globalPath, "config.toml")
	})

	t.Run("returns correct local path", func(t *testing.T) {
		loader := NewTOMLLoader()
		localPath := loader.GetLocalPath("/some/project")

		expected := filepath.Join("/some/project", "toboggan.toml")
		assert.Equal(t, expected, localPath)
	})
}

func TestNewTOMLLoader(t *testing.T) {
	t.Run("creates loader with default paths", func(t *testing.T) {
		loader := NewTOMLLoader()
		assert.NotNil(t, loader)

		globalPath := loader.GetGlobalPath()
		assert.NotEmpty(t, globalPath)
		assert.Contains(t, globalPath, "config.toml")
	})
}

func TestTOMLLoader_loadConfig(t *testing.T) {
	t.Run("loads valid config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "toboggan-test-*")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tmpDir) }()

		configPath := filepath.Join(tmpDir, "test.toml")
		configContent := `
[server]
host = "example.com"
port = 9000

[client]
max_clients = 25
heartbeat_interval_secs = 15
connection_timeout_secs = 30
cleanup_interval_secs = 30
`
		err = os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		loader := NewTOMLLoader()
		config, err := loader.loadConfig(configPath)
		require.NoError(t, err)

		assert.Equal(t, "example.com", config.Server.Host)
		assert.Equal(t, 9000, config.Server.Port)
		assert.Equal(t, 25, config.Client.MaxClients)
		assert.Equal(t, 15, config.Client.HeartbeatIntervalSecs)
	})

	t.Run("fails with non-existent file", func(t *testing.T) {
		loader := NewTOMLLoader()
		_, err := loader.loadConfig("/non/existent/file.toml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reading config")
	})
}
