// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"shield/cli/internal/backend"
	"shield/cli/internal/batch"
	"shield/cli/internal/config"
	"shield/cli/internal/discovery"
	serr "shield/cli/internal/errors"
	"shield/cli/internal/httperrors"
	"shield/cli/internal/keychain"
	"shield/cli/internal/logging"
	"shield/cli/internal/planner"
	"shield/cli/internal/report"
	"shield/cli/internal/token"
)

// protectOptions holds the parsed protect flags. It is read-only once the
// command starts.
type protectOptions struct {
	token         string
	configPath    string
	requireConfig bool
	dryRun        bool
	backup        bool
	noBackup      bool
	output        planner.Options
}

var protectFlags protectOptions

// protectCmd represents the protect command that sends JavaScript files to the
// protection service and writes the protected result back to disk.
var protectCmd = &cobra.Command{
	Use:   "protect <patterns...>",
	Short: "Protect JavaScript files",
	Long: `The protect command expands the given glob patterns, resolves the project
configuration and token, and sends each matched file to the Shield protection
service one at a time. Protected output is written next to the input unless
--output or --output-dir say otherwise.

Files that are already protected are skipped. A failure on one file never stops
the batch; the exit code is non-zero only when the run cannot start.

Examples:
  shield protect "dist/**/*.js"
  shield protect app.js --output app.protected.js --source-map
  shield protect "src/*.js" --output-dir build --no-backup --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := protectFlags
		if opts.noBackup {
			opts.backup = false
		}
		return runProtect(cmd.Context(), cmd.OutOrStdout(), args, opts, backend.New(backend.BaseURL()))
	},
}

// runProtect drives one batch: discovery, config, token, option checks, then
// either the dry-run plan or the sequential protection loop and summary.
func runProtect(ctx context.Context, w io.Writer, patterns []string, opts protectOptions, api backend.API) error {
	files, err := discovery.Expand(patterns)
	if err != nil {
		return serr.Wrap(serr.OptionConflict, "invalid file pattern", err)
	}
	if len(files) == 0 {
		pterm.Info.Println("No JavaScript files matched the given patterns.")
		return nil
	}
	pterm.Debug.Printfln("discovery: %d file(s) matched", len(files))

	cfg, err := config.Resolve(opts.configPath, files, opts.requireConfig)
	if err != nil {
		return err
	}

	tok, src := resolveToken(opts.token, cfg)
	if tok != "" {
		pterm.Debug.Printfln("token: using %s from %s", logging.MaskToken(tok), src)
	}

	if !opts.dryRun {
		if tok == "" {
			return serr.New(serr.TokenMissing, "no project token found").WithHint(token.MissingHint())
		}
		if err := verifyToken(ctx, api, tok); err != nil {
			return err
		}
	}

	if err := opts.output.Validate(len(files)); err != nil {
		return err
	}

	r := report.NewRenderer(w)
	if opts.dryRun {
		if tok == "" {
			pterm.Warning.Println("No project token found; a real run would stop here.")
		}
		r.Plan(planner.BuildAll(files, opts.output))
		return nil
	}

	runner := &batch.Runner{
		API:    api,
		Token:  tok,
		Config: cfg,
		Output: opts.output,
		Backup: opts.backup,
		Notify: r.Handle,
	}
	sum, err := runner.Run(ctx, files)
	r.Close()
	r.Summary(sum)
	return err
}

// resolveToken applies the flag/env/config order and falls back to the
// OS keychain.
func resolveToken(flagToken string, cfg config.Config) (string, token.Source) {
	tok, src := token.Resolve(flagToken, cfg, nil)
	if tok != "" {
		return tok, src
	}
	v, err := keychainToken()
	if err != nil {
		pterm.Debug.Printfln("token: keychain: %v", err)
		return "", token.SourceNone
	}
	if v != "" {
		return v, token.SourceKeychain
	}
	return "", token.SourceNone
}

// keychainToken reads the stored project token; tests replace it.
var keychainToken = func() (string, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return "", err
	}
	return km.LoadProjectToken()
}

// verifyToken checks the token with the service before any file is touched.
func verifyToken(ctx context.Context, api backend.API, tok string) error {
	stop := startInlineSpinner("Verifying project token")
	err := api.VerifyToken(ctx, tok)
	stop()
	if err == nil {
		pterm.Debug.Println("token: verified")
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if serr.Is(err, serr.Network) {
		httperrors.Present(err, "validating your project token", backend.BaseURL())
	}
	var e *serr.E
	if errors.As(err, &e) && e.Kind == serr.TokenInvalid {
		e.Hint = invalidTokenHint()
		return e
	}
	return serr.Wrap(serr.TokenInvalid, "token validation failed", err).WithHint(invalidTokenHint())
}

// invalidTokenHint points at the dashboard and lists every token source.
func invalidTokenHint() string {
	return "Check the token in your Shield dashboard.\n" + token.MissingHint()
}

func init() {
	rootCmd.AddCommand(protectCmd)

	f := protectCmd.Flags()
	f.StringVar(&protectFlags.token, "token", "", "Project token (overrides "+token.EnvPrimary+" and config)")
	f.StringVar(&protectFlags.configPath, "config", "", "Path to "+config.FileName+" (or .yaml/.yml)")
	f.BoolVar(&protectFlags.requireConfig, "require-config", false, "Fail when no config file is found")
	f.BoolVar(&protectFlags.dryRun, "dry-run", false, "Print planned output paths without writing or uploading")
	f.BoolVar(&protectFlags.backup, "backup", true, "Write a .backup copy of each input before protecting it")
	f.BoolVar(&protectFlags.noBackup, "no-backup", false, "Do not write .backup copies")
	f.StringVar(&protectFlags.output.Output, "output", "", "Output file (single input only)")
	f.StringVar(&protectFlags.output.OutputDir, "output-dir", "", "Directory for protected files (must exist)")
	f.StringVar(&protectFlags.output.OutputExt, "output-ext", "", "Extension inserted before the file extension, e.g. .protected")
	f.BoolVar(&protectFlags.output.SourceMap, "source-map", false, "Write a source map next to each output")
	f.StringVar(&protectFlags.output.SourceMapPath, "source-map-path", "", "Source map path (single input only)")
	f.BoolVar(&protectFlags.output.Symbols, "symbols", false, "Write a symbols file next to each output")
	f.StringVar(&protectFlags.output.SymbolsPath, "symbols-path", "", "Symbols file path (single input only)")
}
