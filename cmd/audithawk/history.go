package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/audithawk/internal/cli"
	"github.com/Veraticus/audithawk/internal/common"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded audit sessions",
		Long: `List and inspect previous audit sessions, most recent first.

History lives in database.path; with the default in-memory database it only
spans a single process (see "audithawk serve").`,
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			sessions, err := store.ListSessions(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sessions)
			}
			return cli.RenderHistory(cmd.OutOrStdout(), sessions)
		},
	}

	cmd.Flags().Int("limit", 0, "Show at most this many sessions (0 for all)")
	cmd.Flags().Bool("json", false, "Print sessions as JSON")

	return cmd
}

func historyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the dashboard of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			asJSON, _ := cmd.Flags().GetBool("json")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			session, err := store.GetSession(ctx, args[0])
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No session with id %s", args[0]), err)
				}
				return fmt.Errorf("failed to load session: %w", err)
			}

			return renderSession(cmd, session, asJSON)
		},
	}

	cmd.Flags().Bool("json", false, "Print the session as JSON")

	return cmd
}
