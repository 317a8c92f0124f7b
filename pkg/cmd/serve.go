package cmd

import (
	"github.com/spf13/cobra"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API, event consumers and scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		a, err := app.NewApp(ctx, configPath)
		if err != nil {
			return err
		}

		return a.Run(ctx)
	},
}

func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
