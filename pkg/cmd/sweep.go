package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/app"
	ctxPkg "github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
)

var (
	sweepAbandoned bool

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "run one watchdog sweep over stuck pending/processing records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *ctxPkg.Services) error {
				res, err := svc.Pipeline.Watchdog.Sweep(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "stuck: scanned=%d reclaimed=%d skipped=%d\n",
					res.Scanned, res.Reclaimed, res.Skipped)

				if !sweepAbandoned {
					return nil
				}

				res, err = svc.Pipeline.Watchdog.ReclaimAbandoned(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "abandoned uploads: scanned=%d reclaimed=%d skipped=%d\n",
					res.Scanned, res.Reclaimed, res.Skipped)

				return nil
			})
		},
	}
)

// withServices 初始化存储与领域服务后执行 fn，结束时释放资源.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *ctxPkg.Services) error) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, mgr, err := app.Bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer mgr.Close()

	svc, err := app.BuildServices(ctx, mgr, cfg)
	if err != nil {
		return err
	}

	return fn(ctx, svc)
}

func registerSweepCommands() {
	sweepCmd.Flags().BoolVar(&sweepAbandoned, "abandoned", false, "also fail uploads abandoned mid-transfer")

	rootCmd.AddCommand(sweepCmd)
}
