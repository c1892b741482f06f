// Package main provides the wardwatch binary entry point. Wardwatch tracks
// municipal-order violations per ward: a local-first persistent store with
// scoring, a fixed-SLA issue workflow and background reconciliation against a
// central reporting server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wardwatch/internal/sync"
)

const (
	appName = "wardwatch"
	version = "0.1.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	logLevel  string
	remoteURL string
	timeout   time.Duration
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Municipal-order violation tracker",
		Long: `Wardwatch records sidewalk and public-order violations against ward
units, scores wards on a 100-point compliance scale, and reconciles the local
store with a central reporting server when connectivity allows.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(flags.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.remoteURL, "remote-url", os.Getenv("WARDWATCH_REMOTE_URL"), "Central server endpoint (empty disables sync)")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "remote-timeout", sync.DefaultTimeout, "Remote call timeout")

	cmd.AddCommand(serveCmd(flags))
	cmd.AddCommand(pullCmd(flags))
	cmd.AddCommand(pingCmd(flags))
	cmd.AddCommand(scoreCmd(flags))
	cmd.AddCommand(archiveCmd(flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, version)
		},
	})

	return cmd
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
