package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/audithawk/internal/cli"
)

func vendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage trusted vendors",
		Long: `Records from trusted vendors are never flagged. Changes apply to future
analyses only; recorded sessions keep their original flags.`,
	}

	cmd.AddCommand(vendorsListCmd())
	cmd.AddCommand(vendorsAddCmd())
	cmd.AddCommand(vendorsRemoveCmd())

	return cmd
}

func vendorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trusted vendors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			state, err := initState(ctx, store)
			if err != nil {
				return err
			}

			return cli.RenderVendors(cmd.OutOrStdout(), state.Vendors())
		},
	}
}

func vendorsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>...",
		Short: "Trust one or more vendors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			state, err := initState(ctx, store)
			if err != nil {
				return err
			}

			for _, name := range args {
				if err := state.AddVendor(ctx, name); err != nil {
					return fmt.Errorf("failed to trust %q: %w", name, err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Trusted %s", name)))
			}
			return nil
		},
	}
}

func vendorsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Stop trusting a vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			state, err := initState(ctx, store)
			if err != nil {
				return err
			}

			if err := state.RemoveVendor(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove %q: %w", args[0], err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed %s", args[0])))
			return nil
		},
	}
}
