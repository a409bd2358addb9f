// Package cmd implements the nutrio command-line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nutrio/nutrio/internal/log"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "nutrio",
	Short: "Nutrio nutrition assistant backend",
	Long: `Nutrio analyzes food products against a user's health profile using
guideline passages retrieved from a local vector index and a generative model.

Commands:
  index     rebuild the guideline index from a JSON file
  analyze   analyze a product for a health profile
  chat      ask a free-form nutrition question`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Local development reads GEMINI_API_KEY and NUTRIO_* from .env.
		// A missing file is fine; the real environment wins either way.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if debug || os.Getenv("DEBUG") != "" {
			level = slog.LevelDebug
		}
		slog.SetDefault(log.New(log.Config{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
