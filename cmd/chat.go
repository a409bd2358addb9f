package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrio/nutrio/internal/app"
	"github.com/nutrio/nutrio/internal/config"
	"github.com/nutrio/nutrio/internal/nutrition"
)

var chatFlags struct {
	userID  string
	gender  string
	disease string
	goals   string
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask a free-form nutrition question",
	Long: `Chat answers a free-form question grounded in the guideline index and, when
--user is given, the user's persisted conversation history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	f := chatCmd.Flags()
	f.StringVar(&chatFlags.userID, "user", "", "user id for persisted history")
	f.StringVar(&chatFlags.gender, "gender", "", "user gender")
	f.StringVar(&chatFlags.disease, "disease", "", "health condition(s)")
	f.StringVar(&chatFlags.goals, "goals", "", "dietary goals")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	result := a.Analyzer.Chat(ctx, nutrition.ChatRequest{
		UserID: chatFlags.userID,
		Profile: nutrition.Profile{
			Gender:  chatFlags.gender,
			Disease: chatFlags.disease,
			Goals:   chatFlags.goals,
		},
		Message: strings.Join(args, " "),
	})

	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Println(result.Response)

	persistExchange(ctx, a.Histories, a.Logger, chatFlags.userID, strings.Join(args, " "), result.Response)
	return nil
}

// exchangeAppender is the slice of history.Store the chat command needs.
type exchangeAppender interface {
	Append(ctx context.Context, userID, message, response string) error
}

// persistExchange stores a completed exchange for users with an id. Persist
// failures are logged and swallowed; the reply was already delivered.
func persistExchange(ctx context.Context, store exchangeAppender, logger *slog.Logger, userID, message, response string) {
	if userID == "" {
		return
	}
	if err := store.Append(ctx, userID, message, response); err != nil {
		logger.Warn("failed to persist chat exchange", "user_id", userID, "error", err)
	}
}
