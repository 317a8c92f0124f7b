package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/app"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "database commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list the registered database drivers",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, t := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the media, profile and ledger tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			_, mgr, err := app.Bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.DB.AutoMigrate(ctx, model.All()...); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrated")

			return nil
		},
	}
)

func registerDBCommands() {
	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)

	rootCmd.AddCommand(dbCmd)
}
