package cli

import (
	"context"
	"fmt"

	"github.com/eleven-am/docshift/internal/config"
	"github.com/eleven-am/docshift/internal/logger"
	"github.com/eleven-am/docshift/internal/store"
	"github.com/eleven-am/docshift/pkg/docshift"
	"github.com/spf13/cobra"
)

// Global configuration variables
var (
	configFile  string
	appConfig   *config.Config
	databaseURL string
	dbName      string
	debug       bool
	verbose     bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docshift",
		Short: "docshift - document schema migrations and users/todos API",
		Long: `docshift renames deprecated fields across live MongoDB collections and
serves the users and todos API that reads them.

docshift provides:
- Idempotent field-rename migrations with index cleanup
- A read-only status report of pending migrations
- The users/todos HTTP API`,
		Version:       docshift.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Configure(debug, verbose)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			appConfig = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: docshift.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "url", "", "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", "", "database name")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig layers the global flags over file and environment settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if databaseURL != "" {
		cfg.SetURL(databaseURL)
	}
	if dbName != "" {
		cfg.Database.Name = dbName
	}

	if verbose {
		logger.CLI().WithFields(map[string]interface{}{
			"database": cfg.Database.Name,
			"config":   configFile,
		}).Debug("Configuration loaded")
	}

	return cfg, nil
}

func currentConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

func storeConfig(cfg *config.Config) *store.Config {
	sc := store.NewConfig(cfg.Database.URL, cfg.Database.Name)
	sc.ConnectTimeout = cfg.Database.ConnectTimeout
	sc.OperationTimeout = cfg.Database.OperationTimeout
	return sc
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
