package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ontomodel/internal/config"
	"ontomodel/internal/logging"
	"ontomodel/internal/mangle"
	"ontomodel/internal/ontology"
	"ontomodel/internal/store"
)

var (
	// Global flags
	verbose   bool
	workspace string
	dbPath    string
	driver    string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "onto",
	Short: "onto - term definitions to formal domain models",
	Long: `onto turns controlled-English term definitions into stored facts, renders
them as sort declarations, and compiles English assertions into formal
expressions and expression trees.

Term sentences and assertions are usually authored in a definitions file:

  domain: geometry
  terms:
    - sentence: "Concept radius volume consists of positive dimensional values"
  ontology:
    - "(for any value of concept radius, radius is greater than 0)"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, err = config.FindWorkspaceRoot()
			if err != nil {
				return err
			}
		}
		cfg, err = config.Load(config.DefaultPath(workspace))
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.Path = dbPath
		}
		if driver != "" {
			cfg.Store.Driver = driver
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.Resolve(workspace)

		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("File logging disabled", zap.Error(err))
		} else if err := logging.InitAudit(); err != nil {
			logger.Warn("Audit log disabled", zap.Error(err))
		}
		logging.Boot("onto %s in %s", cmd.Name(), workspace)
		logging.BootDebug("store=%s driver=%s output=%s", cfg.Store.Path, cfg.Store.Driver, cfg.Model.OutputDir)
		logger.Debug("Configuration loaded",
			zap.String("workspace", workspace),
			zap.String("driver", cfg.Store.Driver),
			zap.String("db", cfg.Store.Path))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: nearest directory containing .onto)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Term database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// PersistentPostRun is skipped on error, so the logs are closed here.
		logging.Audit().Error(string(logging.CategoryBoot), err, false)
		logging.CloseAudit()
		logging.CloseAll()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured term store.
func openStore() (*store.TermStore, error) {
	if err := os.MkdirAll(dirOf(cfg.Store.Path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	s, err := store.Open(store.Options{
		Driver:      cfg.Store.Driver,
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.GetBusyTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("open term store: %w", err)
	}
	return s, nil
}

// newValidator returns nil when validation is disabled in config.
func newValidator() *ontology.Validator {
	if !cfg.Validation.Enabled {
		return nil
	}
	return ontology.NewValidator(engineConfig())
}

func engineConfig() mangle.Config {
	mc := mangle.DefaultConfig()
	mc.FactLimit = cfg.Validation.FactLimit
	return mc
}

func newBuilder(s *store.TermStore) *ontology.Builder {
	return ontology.NewBuilder(s, cfg.Model.OutputDir, cfg.Model.TermListDir)
}
