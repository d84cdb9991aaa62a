// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package planner computes where protected output, source maps and symbol
// caches are written for each input file.
package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	serr "shield/cli/internal/errors"
)

// Suffixes appended to the protected code path.
const (
	MapSuffix     = ".map"
	SymbolsSuffix = ".symbols.json"
	BackupSuffix  = ".backup"
)

// Options are the output-related CLI settings.
type Options struct {
	Output        string // single-file only
	OutputDir     string
	OutputExt     string
	SourceMap     bool
	SourceMapPath string // single-file only; implies SourceMap
	Symbols       bool
	SymbolsPath   string // single-file only; implies Symbols
}

// WantsSourceMap reports whether a source map was requested.
func (o Options) WantsSourceMap() bool { return o.SourceMap || o.SourceMapPath != "" }

// WantsSymbols reports whether a symbols cache was requested.
func (o Options) WantsSymbols() bool { return o.Symbols || o.SymbolsPath != "" }

// Plan holds destination paths for one input. Map and Symbols are empty
// when not requested.
type Plan struct {
	Input   string
	Code    string
	Map     string
	Symbols string
}

// Validate rejects single-file-only overrides for batches with more than one
// file and checks that a configured output directory exists.
func (o Options) Validate(fileCount int) error {
	if fileCount > 1 {
		var flags []string
		if o.Output != "" {
			flags = append(flags, "--output")
		}
		if o.SourceMapPath != "" {
			flags = append(flags, "--source-map-path")
		}
		if o.SymbolsPath != "" {
			flags = append(flags, "--symbols-path")
		}
		if len(flags) > 0 {
			return serr.Newf(serr.OptionConflict, "%s can only be used with a single file, but %d files matched",
				strings.Join(flags, ", "), fileCount).
				WithHint("use --output-dir and --output-ext to place output for multiple files")
		}
	}
	if o.OutputDir != "" {
		info, err := os.Stat(o.OutputDir)
		if err != nil {
			return serr.Wrap(serr.OptionConflict, fmt.Sprintf("output directory does not exist: %s", o.OutputDir), err).
				WithHint("create the directory first or pick another --output-dir")
		}
		if !info.IsDir() {
			return serr.Newf(serr.OptionConflict, "output path is not a directory: %s", o.OutputDir)
		}
	}
	return nil
}

// Build computes the plan for input. single tells whether the batch holds
// exactly one file; per-file overrides only apply then.
func Build(input string, o Options, single bool) Plan {
	p := Plan{Input: input}

	switch {
	case single && o.Output != "":
		p.Code = o.Output
	case o.OutputDir != "":
		p.Code = filepath.Join(o.OutputDir, InsertExt(filepath.Base(input), o.OutputExt))
	default:
		p.Code = InsertExt(input, o.OutputExt)
	}

	if o.WantsSourceMap() {
		if single && o.SourceMapPath != "" {
			p.Map = o.SourceMapPath
		} else {
			p.Map = p.Code + MapSuffix
		}
	}
	if o.WantsSymbols() {
		if single && o.SymbolsPath != "" {
			p.Symbols = o.SymbolsPath
		} else {
			p.Symbols = p.Code + SymbolsSuffix
		}
	}
	return p
}

// BuildAll plans every input of a batch.
func BuildAll(inputs []string, o Options) []Plan {
	plans := make([]Plan, 0, len(inputs))
	for _, in := range inputs {
		plans = append(plans, Build(in, o, len(inputs) == 1))
	}
	return plans
}

// InsertExt inserts ext before the extension of path: a.js + .min → a.min.js.
func InsertExt(path, ext string) string {
	if ext == "" {
		return path
	}
	orig := filepath.Ext(path)
	return strings.TrimSuffix(path, orig) + ext + orig
}

// BackupPath returns where the pre-protection copy of input is written.
func BackupPath(input string) string {
	return input + BackupSuffix
}
