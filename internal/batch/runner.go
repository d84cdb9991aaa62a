// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"

	"shield/cli/internal/backend"
	"shield/cli/internal/config"
	serr "shield/cli/internal/errors"
	"shield/cli/internal/planner"
	"shield/cli/internal/watermark"
)

// Runner processes a list of files sequentially.
type Runner struct {
	API    backend.API
	Token  string
	Config config.Config
	Output planner.Options
	Backup bool

	// Notify, when set, receives progress events.
	Notify func(Event)
}

// Run protects every file in order. It returns a non-nil error only when
// ctx is canceled; the summary then holds the files finished so far.
func (r *Runner) Run(ctx context.Context, files []string) (Summary, error) {
	started := time.Now()
	var sum Summary
	single := len(files) == 1

	for i, input := range files {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(started)
			return sum, err
		}
		r.emit(Event{Type: EventFileStarted, Index: i + 1, Total: len(files), Input: input})

		plan := planner.Build(input, r.Output, single)
		out, err := r.processFile(ctx, plan)
		if err != nil && ctx.Err() != nil {
			sum.Elapsed = time.Since(started)
			return sum, ctx.Err()
		}
		sum.add(out)
		r.emit(Event{Type: EventFileDone, Index: i + 1, Total: len(files), Input: input, Outcome: &out})
	}

	sum.Elapsed = time.Since(started)
	return sum, nil
}

func (r *Runner) emit(ev Event) {
	if r.Notify != nil {
		r.Notify(ev)
	}
}

// processFile runs one file through the pipeline and classifies the result.
func (r *Runner) processFile(ctx context.Context, plan planner.Plan) (Outcome, error) {
	err := r.protect(ctx, plan)
	switch {
	case err == nil:
		return Outcome{Input: plan.Input, Status: StatusSucceeded, Output: plan.Code}, nil
	case serr.Is(err, serr.AlreadyProtected):
		pterm.Debug.Printfln("batch: %s already carries a watermark", plan.Input)
		return Outcome{Input: plan.Input, Status: StatusSkipped, Reason: ReasonAlreadyProtected}, nil
	default:
		return Outcome{Input: plan.Input, Status: StatusFailed, Reason: err.Error()}, err
	}
}

func (r *Runner) protect(ctx context.Context, plan planner.Plan) error {
	if _, err := os.Stat(plan.Input); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return serr.Newf(serr.FileIO, "File not found: %s", plan.Input)
		}
		return serr.Wrap(serr.FileIO, "cannot access "+plan.Input, err)
	}

	for _, p := range []string{plan.Code, plan.Map, plan.Symbols} {
		if p == "" {
			continue
		}
		if err := ensureDir(p); err != nil {
			return err
		}
	}

	source, err := ReadSource(plan.Input)
	if err != nil {
		return err
	}

	if r.Backup {
		if err := os.WriteFile(planner.BackupPath(plan.Input), source, 0o644); err != nil {
			return serr.Wrap(serr.FileIO, "write backup", err)
		}
	}

	res, err := r.API.Protect(ctx, backend.Request{
		Code:    string(source),
		Token:   r.Token,
		Options: r.Config.Obfuscation(),
	})
	if err != nil {
		return err
	}

	return writeOutputs(plan, res)
}

// ReadSource reads a file for protection and refuses files that already
// carry a watermark.
func ReadSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serr.Wrap(serr.FileIO, "read "+path, err)
	}
	if watermark.IsAlreadyProtected(data) {
		return nil, serr.New(serr.AlreadyProtected, "The file has already been protected.")
	}
	return data, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return serr.Wrap(serr.FileIO, "create directory "+dir, err)
	}
	return nil
}

// writeOutputs writes the source map and symbols cache, when requested and
// returned, before the protected code so a failed side file never leaves the
// input overwritten.
func writeOutputs(plan planner.Plan, res *backend.Result) error {
	if plan.Map != "" && res.HasSourceMap() {
		if err := os.WriteFile(plan.Map, []byte(res.SourceMap), 0o644); err != nil {
			return serr.Wrap(serr.FileIO, "write "+plan.Map, err)
		}
	}

	if plan.Symbols != "" && res.HasSymbols() {
		var buf bytes.Buffer
		if err := json.Indent(&buf, res.Symbols, "", "  "); err != nil {
			return serr.Wrap(serr.RemoteProtocol, "symbols table is not valid JSON", err)
		}
		buf.WriteByte('\n')
		if err := os.WriteFile(plan.Symbols, buf.Bytes(), 0o644); err != nil {
			return serr.Wrap(serr.FileIO, fmt.Sprintf("write %s", plan.Symbols), err)
		}
	}

	if err := os.WriteFile(plan.Code, watermark.WithBOM(res.Code), 0o644); err != nil {
		return serr.Wrap(serr.FileIO, "write "+plan.Code, err)
	}
	return nil
}
