// Package cli implements the command-line interface. Commands talk to
// the core through the driving ports; all wiring happens here.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/titlegrid-labs/titlegrid-cli/internal/adapters/driven/config/file"
	"github.com/titlegrid-labs/titlegrid-cli/internal/adapters/driven/storage/memory"
	"github.com/titlegrid-labs/titlegrid-cli/internal/adapters/driven/storage/sqlite"
	"github.com/titlegrid-labs/titlegrid-cli/internal/connectors"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driving"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/services"
	"github.com/titlegrid-labs/titlegrid-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verboseFlag   bool
	configDirFlag string

	searchService driving.SearchService
	sourceCatalog driving.SourceCatalog

	// closers tears down wired adapters after the command finishes.
	closers []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "titlegrid",
	Short: "Search recorded land documents across county sources",
	Long: `TitleGrid searches recorded land documents (deeds, mortgages, liens)
across county and state sources from a single query. Sources are tried
concurrently; failures in one county never block results from another.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "config directory (default ~/.titlegrid)")
}

// Execute runs the root command and releases wired adapters.
func Execute() error {
	defer shutdown()
	return rootCmd.Execute()
}

// ensureServices wires the application on first use. Tests install
// their own services, in which case wiring is skipped.
func ensureServices() error {
	if searchService != nil && sourceCatalog != nil {
		return nil
	}

	configDir := configDirFlag
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return err
		}
		configDir = dir
	}

	settings, err := file.LoadSettings(configDir)
	if err != nil {
		return err
	}
	if settings.Verbose {
		logger.SetVerbose(true)
	}

	descriptors, err := file.LoadSources(configDir)
	if err != nil {
		return err
	}

	registry := services.NewSourceRegistry()
	for _, desc := range descriptors {
		if err := registry.Register(desc); err != nil {
			return fmt.Errorf("registering %s: %w", desc.Key(), err)
		}
	}

	watcher, err := file.WatchSources(configDir, func(reloaded []domain.SourceDescriptor) {
		for _, desc := range reloaded {
			// Existing registrations keep their descriptors.
			_ = registry.Register(desc)
		}
	})
	if err != nil {
		logger.Warn("Source watching disabled: %v", err)
	} else {
		closers = append(closers, watcher)
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	closers = append(closers, store)

	searchService = services.NewSearchOrchestrator(
		registry,
		connectors.NewFactory(),
		memory.NewResultCache(),
		store,
		settings.OrchestratorConfig(),
	)
	sourceCatalog = registry
	return nil
}

func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i].Close()
	}
	closers = nil
}
