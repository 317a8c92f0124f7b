package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/app"
	kv "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "key-value cache commands",
	}

	kvListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list the registered kv backends",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	kvKeysCmd = &cobra.Command{
		Use:   "keys [pattern]",
		Short: "list cached keys, e.g. 'profile:*'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			_, mgr, err := app.Bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer mgr.Close()

			keys, err := mgr.KV.Keys(ctx, pattern)
			if err != nil {
				return err
			}

			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}

			return nil
		},
	}
)

func registerKVCommands() {
	kvCmd.AddCommand(kvListCmd)
	kvCmd.AddCommand(kvKeysCmd)

	rootCmd.AddCommand(kvCmd)
}
