package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/app"
	mq "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/mq"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "message bus commands",
		Aliases: []string{"bus"},
	}

	mqListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list the registered bus backends",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")

			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Topics:")

			for _, t := range queue.AllTopics {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+t)
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail <topic>",
		Short: "print events published on a topic until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]
			if !slices.Contains(queue.AllTopics, topic) {
				return fmt.Errorf("unknown topic %q", topic)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			_, mgr, err := app.Bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer mgr.Close()

			msgs, err := mgr.MQ.Subscribe(ctx, topic)
			if err != nil {
				return err
			}

			for msg := range msgs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", msg.UUID, msg.Metadata.Get(queue.MetaProducer), msg.Payload)
				msg.Ack()
			}

			return nil
		},
	}
)

func registerMQCommands() {
	mqCmd.AddCommand(mqListCmd)
	mqCmd.AddCommand(mqTailCmd)

	rootCmd.AddCommand(mqCmd)
}
