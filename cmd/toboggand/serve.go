package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/tobogganhq/toboggan/internal/adapters/primary/http"
	"github.com/tobogganhq/toboggan/internal/adapters/secondary/config"
	"github.com/tobogganhq/toboggan/internal/adapters/secondary/deckparser"
	"github.com/tobogganhq/toboggan/internal/adapters/secondary/watcher"
	"github.com/tobogganhq/toboggan/internal/core/kernel"
	"github.com/tobogganhq/toboggan/internal/core/reload"
	"github.com/tobogganhq/toboggan/internal/domain/entities"
	"github.com/tobogganhq/toboggan/internal/logging"
)

var (
	port            int
	host            string
	maxClients      int
	heartbeatSecs   int
	connTimeoutSecs int
	cleanupSecs     int
	shutdownTimeout int
	watchDeck       bool
	publicDir       string
	corsOrigins     []string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [deck.toml]",
	Short: "Serve a TOML slide deck",
	Long: `Start the control-plane server over a TOML slide deck, accepting
navigation commands over HTTP and WebSocket and keeping every connected
client's view in sync.

Example:
  toboggand serve talk.toml
  toboggand serve talk.toml --port 9000 --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to serve on (overrides config)")
	serveCmd.Flags().StringVar(&host, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&maxClients, "max-clients", 0, "Maximum concurrent clients (overrides config)")
	serveCmd.Flags().IntVar(&heartbeatSecs, "heartbeat-interval", 0, "WebSocket heartbeat interval in seconds (overrides config)")
	serveCmd.Flags().IntVar(&connTimeoutSecs, "connection-timeout", 0, "WebSocket connection timeout in seconds (overrides config)")
	serveCmd.Flags().IntVar(&cleanupSecs, "cleanup-interval", 0, "Stale client sweep interval in seconds (overrides config)")
	serveCmd.Flags().IntVar(&shutdownTimeout, "shutdown-timeout", 0, "Graceful shutdown timeout in seconds (overrides config)")
	serveCmd.Flags().BoolVarP(&watchDeck, "watch", "w", false, "Hot-reload the deck on file changes (overrides config)")
	serveCmd.Flags().StringVar(&publicDir, "public-dir", "", "Optional directory of static assets to serve alongside the API")
	serveCmd.Flags().StringSliceVar(&corsOrigins, "cors-origins", nil, "Allowed CORS origins (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	deckPath := args[0]

	finalConfig, err := loadAndMergeConfig(cmd, deckPath)
	if err != nil {
		return err
	}
	if err := finalConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if !cmd.Flags().Changed("verbose") {
		verbose = finalConfig.Logging.Verbose
	}
	logger := logging.NewWithLevel("toboggand", verbose, finalConfig.Logging.GetLevel())

	logger.Info("loading deck %s", deckPath)

	k := kernel.New(finalConfig.Client.MaxClientsOrDefault())
	parser := deckparser.New()

	reloadSvc := reload.New(watcher.New(), parser, k)
	if err := reloadSvc.LoadInitial(cmd.Context(), deckPath); err != nil {
		return fmt.Errorf("loading deck: %w", err)
	}

	if finalConfig.Deck.Watch {
		if err := reloadSvc.Start(cmd.Context(), deckPath); err != nil {
			return fmt.Errorf("starting deck watcher: %w", err)
		}
		logger.Info("watching %s for changes", deckPath)
		defer func() { _ = reloadSvc.Stop() }()
	}

	resolvedPublicDir := ""
	if finalConfig.Deck.PublicDir != nil {
		resolvedPublicDir = *finalConfig.Deck.PublicDir
	}

	server := httpadapter.New(k, &finalConfig.Server, &finalConfig.Logging, resolvedPublicDir).
		WithClientConfig(finalConfig.Client)
	if err := server.Start(cmd.Context(), finalConfig.Server.Host, finalConfig.Server.Port); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	go runCleanupSweep(cmd.Context(), k, finalConfig.Client.CleanupInterval(), logger)

	logger.Info("serving on http://%s:%d", finalConfig.Server.Host, finalConfig.Server.Port)

	<-cmd.Context().Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), finalConfig.Server.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown: %v", err)
	}

	return nil
}

// runCleanupSweep periodically removes registry entries whose sink has
// closed (a WebSocket session that dropped without a clean Unregister),
// stopping when ctx is cancelled at shutdown.
func runCleanupSweep(ctx context.Context, k *kernel.Kernel, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := k.Registry.Sweep(); n > 0 {
				logger.Debug("cleanup sweep removed %d stale client(s)", n)
			}
		}
	}
}

// loadAndMergeConfig loads configuration with precedence: CLI flags > local
// config (deck directory) > global config > built-in defaults.
func loadAndMergeConfig(cmd *cobra.Command, deckPath string) (*entities.Config, error) {
	loader := config.NewTOMLLoader()
	merger := config.NewConfigMerger()
	ctx := cmd.Context()

	result := config.GetDefaultConfig()

	globalConfig, err := loader.LoadGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	if globalConfig != nil {
		result = merger.Merge(result, globalConfig)
	}

	localConfig, err := loader.LoadLocal(ctx, filepath.Dir(deckPath))
	if err != nil {
		return nil, fmt.Errorf("loading local config: %w", err)
	}
	if localConfig != nil {
		result = merger.Merge(result, localConfig)
	}

	result = merger.ApplyEnvVars(result)
	result = merger.ApplyFlags(result, flagOverrides(cmd, deckPath))

	return result, nil
}

// flagOverrides collects the CLI flags a user explicitly set into the map
// shape ports.ConfigMerger.ApplyFlags expects.
func flagOverrides(cmd *cobra.Command, deckPath string) map[string]interface{} {
	flags := map[string]interface{}{
		"deck-path": deckPath,
	}

	if cmd.Flags().Changed("port") {
		flags["port"] = port
	}
	if cmd.Flags().Changed("host") {
		flags["host"] = host
	}
	if cmd.Flags().Changed("max-clients") {
		flags["max-clients"] = maxClients
	}
	if cmd.Flags().Changed("heartbeat-interval") {
		flags["heartbeat-interval"] = heartbeatSecs
	}
	if cmd.Flags().Changed("connection-timeout") {
		flags["connection-timeout"] = connTimeoutSecs
	}
	if cmd.Flags().Changed("cleanup-interval") {
		flags["cleanup-interval"] = cleanupSecs
	}
	if cmd.Flags().Changed("shutdown-timeout") {
		flags["shutdown-timeout"] = shutdownTimeout
	}
	if cmd.Flags().Changed("watch") {
		flags["watch"] = watchDeck
	}
	if cmd.Flags().Changed("public-dir") {
		flags["public-dir"] = publicDir
	}
	if cmd.Flags().Changed("cors-origins") {
		flags["cors-origins"] = corsOrigins
	}
	if cmd.Flags().Changed("verbose") {
		verbose, _ := cmd.Flags().GetBool("verbose")
		flags["verbose"] = verbose
	}

	return flags
}
