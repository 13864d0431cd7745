package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopconcierge/backend/config"
	"github.com/shopconcierge/backend/internal/infrastructure/logging"
	"github.com/spf13/cobra"
)

var askUserID string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message to the concierge and print the reply",
	Example: `  concierge ask "find sunglasses under $30"
  concierge ask --user alice "show my cart"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUserID, "user", "u", "", "shopper id (defaults to a fresh uuid)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// keep stdout for the reply
	logger, err := logging.New("error", cfg.Server.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Gemini.Timeout+cfg.Catalog.Timeout)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	userID := askUserID
	if userID == "" {
		userID = uuid.NewString()
	}

	reply, err := a.concierge.Chat(ctx, userID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply.Response)
	return nil
}
