package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ctxPkg "github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/jobs"
)

var (
	quotaCmd = &cobra.Command{
		Use:   "quota",
		Short: "storage quota maintenance",
	}

	quotaRecountCmd = &cobra.Command{
		Use:   "recount <uid>",
		Short: "recompute used bytes from live records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *ctxPkg.Services) error {
				p, err := svc.Store.Recount(ctx, args[0])
				if err != nil {
					return err
				}

				if err := svc.Pipeline.Guard.Invalidate(ctx, p.UID); err != nil && debug {
					fmt.Fprintln(cmd.ErrOrStderr(), "invalidate profile cache:", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s used=%d quota=%d remaining=%d\n",
					p.UID, p.UsedBytes, p.QuotaBytes, p.Remaining())

				return nil
			})
		},
	}

	quotaAuditCmd = &cobra.Command{
		Use:   "audit",
		Short: "report owners whose used bytes differ from their live records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *ctxPkg.Services) error {
				drift, err := jobs.AuditQuota(ctx, svc.Store)
				if err != nil {
					return err
				}

				if len(drift) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no drift")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "OWNER\tRECORDED\tACTUAL\tDIFF")

				for _, d := range drift {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.OwnerID, d.Recorded, d.Actual, d.Diff())
				}

				return w.Flush()
			})
		},
	}
)

func registerQuotaCommands() {
	quotaCmd.AddCommand(quotaRecountCmd)
	quotaCmd.AddCommand(quotaAuditCmd)

	rootCmd.AddCommand(quotaCmd)
}
