package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nutrio/nutrio/internal/app"
	"github.com/nutrio/nutrio/internal/config"
	"github.com/nutrio/nutrio/internal/knowledge"
)

var indexCmd = &cobra.Command{
	Use:   "index <guidelines.json>",
	Short: "Rebuild the guideline index from a JSON file",
	Long: `Index reads disease guideline records from a JSON file, embeds them, and
rebuilds the guideline collection from scratch. Rebuilding is idempotent:
running it twice over the same file yields the same collection.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	records, err := knowledge.LoadGuidelines(args[0])
	if err != nil {
		return fmt.Errorf("loading guidelines: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no guideline records in %s", args[0])
	}

	a, err := app.SetupIndexer(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}

	docs := knowledge.BuildDocuments(records)
	if err := a.Index.Rebuild(ctx, cfg.Collection, docs); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	fmt.Printf("Indexed %d guidelines into collection %q at %s\n",
		len(docs), cfg.Collection, cfg.IndexPath)
	return nil
}
