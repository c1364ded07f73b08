package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-gplus/internal/asa"
	"github.com/pable/go-gplus/internal/logger"
	"github.com/pable/go-gplus/internal/pipeline"
)

var brandsSeason int

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Rebuild brands.json from the teams active this season",
	Args:  cobra.NoArgs,
	RunE:  runBrands,
}

func init() {
	brandsCmd.Flags().IntVar(&brandsSeason, "season", time.Now().Year(), "season whose teams are listed")
}

func runBrands(cmd *cobra.Command, args []string) error {
	client := asa.NewClient(asa.Options{
		BaseURL:      cfg.BaseURL,
		Delay:        cfg.RequestDelay(),
		Timeout:      cfg.RequestTimeout(),
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff(),
		ChunkSize:    cfg.LookupChunkSize,
		Logger:       logger.Get(),
	})
	brands, err := pipeline.Brands(cmd.Context(), client, logger.Named("brands"), cfg.Competitions, brandsSeason)
	if err != nil {
		return fmt.Errorf("load brands: %w", err)
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	path, err := pipeline.WriteBrands(cfg.OutDir, brands)
	if err != nil {
		return fmt.Errorf("write brands: %w", err)
	}
	fmt.Fprintf(os.Stdout, "%d teams -> %s\n", len(brands), path)
	return nil
}
