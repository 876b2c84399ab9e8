package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/audithawk/internal/audit"
	"github.com/Veraticus/audithawk/internal/cli"
	"github.com/Veraticus/audithawk/internal/common"
	"github.com/Veraticus/audithawk/internal/ingest"
	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/rules"
	"github.com/Veraticus/audithawk/internal/tui"
)

type sessionOutput struct {
	Session *model.AuditSession `json:"session"`
	Summary model.Summary       `json:"summary"`
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Audit a CSV or OFX/QFX transaction export",
		Long: `Ingest a transaction export, flag every record whose amount exceeds the
threshold unless its merchant is trusted, and record the session in history.

CSV files need transaction_id and amount columns; date, merchant, category
and account_id are read when present. OFX and QFX statements are read by
extension.

Examples:
  # Flag everything above 75
  audithawk analyze expenses.csv --threshold 75

  # Trust a vendor for this and future runs
  audithawk analyze expenses.csv --threshold 500 --trust "Acme Supplies"

  # Generate a demo batch scored by a random risk signal
  audithawk analyze --synthetic --threshold 1000

  # Triage the flagged records interactively
  audithawk analyze expenses.csv --threshold 75 --review`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().Float64("threshold", 0, "Flag records above this amount (default: analysis.threshold)")
	cmd.Flags().Bool("synthetic", false, "Analyze a generated demo batch instead of a file")
	cmd.Flags().StringSlice("trust", nil, "Trust a vendor before analyzing (repeatable)")
	cmd.Flags().Bool("review", false, "Open the interactive review queue afterwards")
	cmd.Flags().Bool("json", false, "Print the session as JSON")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	synthetic, _ := cmd.Flags().GetBool("synthetic")
	trust, _ := cmd.Flags().GetStringSlice("trust")
	review, _ := cmd.Flags().GetBool("review")
	asJSON, _ := cmd.Flags().GetBool("json")

	if len(args) == 0 && !synthetic {
		return common.NewUserError("Provide a file to analyze or pass --synthetic", ingest.ErrNoFile)
	}

	threshold := viper.GetFloat64("analysis.threshold")
	if cmd.Flags().Changed("threshold") {
		threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if err := rules.ValidateThreshold(threshold); err != nil {
		return common.NewUserError("Set a positive --threshold (or analysis.threshold in config)", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	state, err := initState(ctx, store, trust...)
	if err != nil {
		return err
	}

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Analysis")
	ctx, stop := interruptHandler.HandleInterrupts(ctx)
	defer stop()

	req := audit.AnalyzeRequest{
		Threshold: threshold,
		Synthetic: synthetic,
	}
	if !asJSON {
		req.Progress = cli.NewProgress(cmd.ErrOrStderr(), "Evaluating").Update
	}

	if !synthetic {
		path := args[0]
		f, openErr := os.Open(path) // #nosec G304
		if openErr != nil {
			if errors.Is(openErr, os.ErrNotExist) {
				return common.NewUserError(fmt.Sprintf("File %s does not exist", path), openErr)
			}
			return fmt.Errorf("failed to open %s: %w", path, openErr)
		}
		defer func() { _ = f.Close() }()
		req.FileName = filepath.Base(path)
		req.Content = f
	}

	session, err := state.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if review {
		session, err = tui.RunReview(ctx, state, tui.Config{
			Theme:     viper.GetString("ui.theme"),
			Input:     cmd.InOrStdin(),
			Output:    cmd.OutOrStdout(),
			AltScreen: true,
		})
		if err != nil {
			return err
		}
	}

	return renderSession(cmd, session, asJSON)
}

func renderSession(cmd *cobra.Command, session *model.AuditSession, asJSON bool) error {
	summary := audit.Summarize(*session)
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), sessionOutput{Session: session, Summary: summary})
	}
	return cli.RenderDashboard(cmd.OutOrStdout(), session, summary)
}
