// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Shield CLI application.
// It implements the protect command that sends JavaScript files to the remote
// protection service, plus helpers for storing a project token in the OS
// keychain, using the Cobra CLI framework.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"shield/cli/internal/backend"
	serr "shield/cli/internal/errors"
	"shield/cli/internal/logging"
)

// EnvVerbose turns on debug output like --verbose does.
const EnvVerbose = "SHIELD_VERBOSE"

// exitInterrupted is the conventional exit code after SIGINT.
const exitInterrupted = 130

var (
	showVersion bool
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point for the Shield CLI application.
var rootCmd = &cobra.Command{
	Use:   "shield",
	Short: "Shield CLI for protecting JavaScript files",
	Long: `Shield is a command-line tool that protects JavaScript files by sending them
to the Shield protection service and writing the watermarked result back to disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose || os.Getenv(EnvVerbose) != "" {
			os.Setenv(EnvVerbose, "1")
			pterm.EnableDebugMessages()
		}
		backend.UserAgent = "shield-cli/" + Version
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// SIGINT and SIGTERM cancel the command context; run-level failures exit 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		pterm.Warning.Println("Interrupted")
		stop()
		os.Exit(exitInterrupted)
	}
	printFatal(err)
	stop()
	os.Exit(1)
}

// printFatal shows a run-level error and, when present, how to fix it.
func printFatal(err error) {
	pterm.Error.Println(logging.PresentError("", err))
	if hint := serr.HintOf(err); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug output")
}
