package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/app"
	ctxPkg "github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
)

const progressInterval = 500 * time.Millisecond

var (
	uploadOwner       string
	uploadMime        string
	uploadWait        bool
	uploadWaitTimeout time.Duration
	uploadLocal       bool

	uploadCmd = &cobra.Command{
		Use:   "upload <file>...",
		Short: "upload local files through the upload coordinator",
		Long: `Upload local files as the given owner. Each file is transferred to object storage
and its record moves to pending; analysis is performed by whichever process consumes
media change events. With --wait the command keeps polling until each record is ready
or failed. --local runs the analysis trigger and quota reconciler in this process.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runUpload,
	}
)

func runUpload(cmd *cobra.Command, args []string) error {
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

	if uploadLocal {
		if err := runLocalPipeline(ctx, mgr, svc); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	var failed int

	for _, path := range args {
		rec, err := uploadOne(ctx, cmd.ErrOrStderr(), svc, path)
		if err != nil {
			failed++

			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)

			if rec == nil {
				continue
			}
		}

		if uploadWait && err == nil {
			done, werr := waitAnalyzed(ctx, svc, rec.ID)
			if werr != nil {
				failed++

				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, werr)
			}

			// 轮询失败时仍打印上传完成时的记录
			if done != nil {
				rec = done
			}
		}

		b, _ := sonic.ConfigStd.MarshalIndent(types.RecordView(rec), "", "  ")
		fmt.Fprintln(out, string(b))
	}

	if err := svc.Uploader.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}

	return nil
}

func uploadOne(ctx context.Context, progress io.Writer, svc *ctxPkg.Services, path string) (*model.MediaRecord, error) {
	src, err := uploader.NewFileSource(path, uploadMime)
	if err != nil {
		return nil, err
	}

	t, err := svc.Uploader.Initiate(ctx, uploadOwner, src)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	interrupted := ctx.Done()
	shown := false

	for {
		select {
		case <-t.Done():
			if shown {
				fmt.Fprintln(progress)
			}

			bg := context.WithoutCancel(ctx)

			rec, err := t.Wait(bg)
			if err != nil && rec == nil {
				rec, _ = svc.Store.Get(bg, uploadOwner, t.ID())
			}

			return rec, err
		case <-interrupted:
			t.Cancel()

			interrupted = nil
		case <-ticker.C:
			if e, ok := svc.Uploader.Overlay().Get(t.ID()); ok {
				fmt.Fprintf(progress, "\r%s %3d%%", src.Name(), e.Progress)

				shown = true
			}
		}
	}
}

// waitAnalyzed 轮询记录直到进入 ready 或 failed.
func waitAnalyzed(ctx context.Context, svc *ctxPkg.Services, id string) (*model.MediaRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		rec, err := svc.Store.Get(ctx, uploadOwner, id)
		if err != nil {
			return nil, err
		}

		if rec.Status.Terminal() {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return rec, fmt.Errorf("record %s still %s after %s", id, rec.Status, uploadWaitTimeout)
			}

			return rec, ctx.Err()
		case <-ticker.C:
		}
	}
}

// runLocalPipeline 在本进程内消费变更事件，配合 gochannel 总线使用.
func runLocalPipeline(ctx context.Context, mgr *storage.Manager, svc *ctxPkg.Services) error {
	if err := svc.Pipeline.Register(mgr.MQ, "cli"); err != nil {
		return err
	}

	go func() { _ = mgr.MQ.Run(ctx) }()

	select {
	case <-mgr.MQ.Running():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registerUploadCommands() {
	uploadCmd.Flags().StringVar(&uploadOwner, "owner", "", "owner uid of the uploaded media")
	uploadCmd.Flags().StringVar(&uploadMime, "mime", "", "declared MIME type (sniffed from content when empty)")
	uploadCmd.Flags().BoolVar(&uploadWait, "wait", false, "wait until analysis finishes")
	uploadCmd.Flags().DurationVar(&uploadWaitTimeout, "wait-timeout", 2*time.Minute, "how long --wait polls")
	uploadCmd.Flags().BoolVar(&uploadLocal, "local", false, "run the analysis trigger in this process")
	_ = uploadCmd.MarkFlagRequired("owner")

	rootCmd.AddCommand(uploadCmd)
}
