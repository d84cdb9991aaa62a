// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"shield/cli/internal/backend"
	"shield/cli/internal/config"
	serr "shield/cli/internal/errors"
	"shield/cli/internal/keychain"
	"shield/cli/internal/logging"
	"shield/cli/internal/terminal"
	"shield/cli/internal/token"
)

// tokenCmd groups the commands that manage the project token kept in the
// OS keychain. A stored token is used only when no flag, environment
// variable or config file supplies one.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the project token stored in the OS keychain",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Verify a project token and store it in the OS keychain",
	Long: `The set command verifies the project token with the protection service and
stores it in the OS keychain. When the token is not given as an argument it is
read from stdin and cleared from the screen afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tok := ""
		if len(args) == 1 {
			tok = strings.TrimSpace(args[0])
		} else {
			reader := bufio.NewReader(os.Stdin)
			promptText := "Enter project token: "
			fmt.Print(promptText)
			line, _ := reader.ReadString('\n')
			tok = strings.TrimSpace(line)
			// Clear the prompt and user input from terminal
			terminal.ClearPreviousLines(len(promptText) + len(tok))
		}
		if tok == "" {
			return serr.New(serr.TokenMissing, "project token is required")
		}

		if err := verifyToken(cmd.Context(), backend.New(backend.BaseURL()), tok); err != nil {
			return err
		}

		km, err := keychain.GetManager()
		if err != nil {
			pterm.Error.Println("Secure storage is not available on this system.")
			pterm.Println("   Keychain is only supported on macOS and Windows.")
			pterm.Println("   Use --token or " + token.EnvPrimary + " instead.")
			return err
		}
		if err := km.SaveProjectToken(tok); err != nil {
			return fmt.Errorf("failed to save project token securely: %w", err)
		}

		pterm.Success.Printfln("Project token %s verified and saved", logging.MaskToken(tok))
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the project token from the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if err := km.ClearProjectToken(); err != nil {
			return fmt.Errorf("failed to remove project token: %w", err)
		}
		pterm.Success.Println("Project token removed from the keychain")
		return nil
	},
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which project token protect would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve("", nil, false)
		if err != nil {
			return err
		}
		tok, src := resolveToken("", cfg)
		out := cmd.OutOrStdout()
		if tok == "" {
			fmt.Fprintln(out, "No project token configured.")
			fmt.Fprintln(out, token.MissingHint())
			return nil
		}
		fmt.Fprintf(out, "Project token: %s\n", logging.MaskToken(tok))
		fmt.Fprintf(out, "Source:        %s\n", describeSource(src, cfg))
		return nil
	},
}

// describeSource names where a token came from for display.
func describeSource(src token.Source, cfg config.Config) string {
	switch src {
	case token.SourceConfig, token.SourceConfigAl:
		return fmt.Sprintf("%s in %s", src, cfg.Path)
	case token.SourceEnv, token.SourceEnvAlias:
		return "environment variable " + string(src)
	case token.SourceNone:
		return "none"
	}
	return string(src)
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd, tokenStatusCmd)
	rootCmd.AddCommand(tokenCmd)
}
