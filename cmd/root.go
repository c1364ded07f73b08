package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pable/go-gplus/internal/config"
	"github.com/pable/go-gplus/internal/logger"
)

var (
	configPath string
	dbPath     string
	outDir     string
	logLevel   string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gplus",
	Short: "ASA goals-added snapshot builder",
	Long: `Pull goals added (g+) data from the American Soccer Analysis API and build
percentile, leaderboard, team breakdown and zone snapshot files per competition.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default $GPLUS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite run registry (overrides db_path)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "snapshot output directory (overrides out_dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")

	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(brandsCmd)
	rootCmd.AddCommand(leadersCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// loadConfig reads .env, then the layered config, then applies flag
// overrides and installs the global logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	c, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if outDir != "" {
		c.OutDir = outDir
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	dbPath = c.DBPath

	if err := logger.Init(); err != nil {
		return err
	}
	if err := logger.SetLevelString(c.LogLevel); err != nil {
		return err
	}
	cfg = c
	return nil
}
