package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrio/nutrio/internal/app"
	"github.com/nutrio/nutrio/internal/config"
	"github.com/nutrio/nutrio/internal/nutrition"
)

var analyzeFlags struct {
	gender    string
	disease   string
	goals     string
	allergies string
	nutrition string
	followUp  bool
	asJSON    bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [question]",
	Short: "Analyze a product for a health profile",
	Long: `Analyze assesses whether a product suits the given health profile and
prints a short recommendation. Pass the nutrition label text with --nutrition
and the profile with --disease, --gender, --goals, and --allergies.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.gender, "gender", "", "user gender")
	f.StringVar(&analyzeFlags.disease, "disease", "", "health condition(s)")
	f.StringVar(&analyzeFlags.goals, "goals", "", "dietary goals")
	f.StringVar(&analyzeFlags.allergies, "allergies", "", "known allergies")
	f.StringVar(&analyzeFlags.nutrition, "nutrition", "", "product nutrition text")
	f.BoolVar(&analyzeFlags.followUp, "follow-up", true, "invite a follow-up question")
	f.BoolVar(&analyzeFlags.asJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.Analyzer.Analyze(ctx, nutrition.AnalyzeRequest{
		Profile: nutrition.Profile{
			Gender:    analyzeFlags.gender,
			Disease:   analyzeFlags.disease,
			Goals:     analyzeFlags.goals,
			Allergies: analyzeFlags.allergies,
		},
		NutritionText: analyzeFlags.nutrition,
		Query:         strings.Join(args, " "),
		AskFollowUp:   analyzeFlags.followUp,
	})

	if analyzeFlags.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Println(result.Recommendation)
	return nil
}
