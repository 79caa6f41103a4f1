package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/seatwatch/internal/app"
	"github.com/MrSnakeDoc/seatwatch/internal/config"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/version"
)

var opts app.Options

var rootCmd = &cobra.Command{
	Use:   "seatwatch",
	Short: "Watch TCDD trains for newly available seats",
	Long:  "seatwatch polls the TCDD availability service for one route and sends a Telegram alert when coaches with free seats appear. It runs a single check by default, suited to cron.",

	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(version.String())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&opts.Continuous, "continuous", false, "keep polling every SEATWATCH_POLL_INTERVAL until interrupted")
	rootCmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "log alerts instead of sending them and leave the state untouched")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ seatwatch: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.WithDryRun(opts.DryRun))
	if err != nil {
		return err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, opts, loggerClient)
	if err != nil {
		loggerClient.Error("startup failed", logger.Error(err))
		return err
	}
	if err := a.Run(ctx); err != nil {
		loggerClient.Error("seatwatch failed", logger.Error(err))
		return err
	}
	return nil
}
