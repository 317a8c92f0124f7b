// Package cmd 定义 smartmedia 命令行：serve 运行完整服务，其余子命令做上传、维护与调试.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           configs.AppName,
		Short:         "Media library with AI analysis, storage quotas and stuck-job recovery",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose output")

	registerServeCommands()
	registerUploadCommands()
	registerSweepCommands()
	registerQuotaCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerMQCommands()
	registerKVCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// signalContext 收到 SIGINT/SIGTERM 时取消.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
