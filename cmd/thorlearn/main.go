// Package main is the entry point for thorlearn, the operator CLI for the
// continuous knowledge acquisition core.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ayaan-rulhania/thor-acquisition/internal/config"
	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
)

var (
	cfgPath    string
	dbPath     string
	workers    int
	interval   int
	verbose    bool
	log        *logging.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "thorlearn",
		Short: "Continuous knowledge acquisition core for the Thor assistant",
		Long: `thorlearn runs the long-running crawler that mines topics from
multiple web sources, normalizes and ranks the results, and persists them
into a durable knowledge store.

Start the learner:   thorlearn start --workers 4 --interval 5
Check status:        thorlearn status
Stop a running one:  thorlearn stop`,
		PersistentPreRunE: initLogging,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.thorlearn/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "data directory (default ~/.thorlearn)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "worker pool size (0 = use config)")
	rootCmd.PersistentFlags().IntVar(&interval, "interval", 0, "search interval in seconds (0 = use config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(stopCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging(cmd *cobra.Command, args []string) error {
	level := "info"
	if verbose {
		level = "debug"
	}

	l, err := logging.New(&logging.Config{
		LogDir:  defaultLogDir(),
		Level:   level,
		Console: true,
	})
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log = l
	return nil
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".thorlearn", "logs")
	}
	return filepath.Join(home, ".thorlearn", "logs")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.DataDir = dbPath
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if interval > 0 {
		cfg.Interval = interval
	}

	return cfg, nil
}
