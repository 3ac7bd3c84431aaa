package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.ErrorContext(ctx, "command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ecocode",
		Short: "AI-powered code sustainability analysis",
		Long: fmt.Sprintf("%s\nEcoCode Sentinel estimates the monthly energy and carbon impact of code "+
			"and asks a model provider for greener alternatives.", banner),
		SilenceUsage: true,
	}
	root.AddCommand(
		newEstimateCmd(),
		newAnalyzeCmd(),
		newServeCmd(),
		newProbeCmd(),
		newSessionCmd(),
	)
	return root
}

const banner = `
 ___          ___         _       ___           _   _          _
| __|__ ___  / __|___  __| |___  / __| ___ _ _ | |_(_)_ _  ___| |
| _|/ _/ _ \| (__/ _ \/ _' / -_) \__ \/ -_) ' \|  _| | ' \/ -_) |
|___\__\___/ \___\___/\__,_\___| |___/\___|_||_|\__|_|_||_\___|_|
`
