package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/audithawk/internal/cli"
	"github.com/Veraticus/audithawk/internal/web"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit API over HTTP",
		Long: `Start the JSON API. Upload files to POST /api/analyze, triage the live
session under /api/live and browse /api/sessions. All clients share one live
working set and one history.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", defaultServerAddr, "Listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	if viper.GetString("logging.level") == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Server")
	ctx, stop := interruptHandler.HandleInterrupts(ctx)
	defer stop()

	server := web.NewServer(state, web.Options{AccessLog: cmd.ErrOrStderr()})
	return server.Run(ctx, viper.GetString("server.addr"))
}
