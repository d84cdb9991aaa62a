// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend talks to the remote protection service.
// It defines the API contract the batch pipeline depends on and an HTTPS
// implementation of it.
package backend

import (
	"context"
	"encoding/json"
)

// API defines backend operations the CLI depends on.
// Implementations may call the real HTTPS service or provide fakes for tests.
type API interface {
	// Protect sends source code to the service and returns protected output.
	// The returned Code always starts with a fresh watermark line.
	Protect(ctx context.Context, req Request) (*Result, error)
	// VerifyToken checks that the service accepts token.
	VerifyToken(ctx context.Context, token string) error
}

// Request is one protection call.
type Request struct {
	Code    string
	Token   string
	Options map[string]any
}

// Result is what the service returned for one file.
type Result struct {
	// Code is the watermarked protected code.
	Code string
	// SourceMap is the raw source map text; empty when none was returned.
	SourceMap string
	// Symbols is the identifier symbols table as raw JSON; nil when absent.
	Symbols json.RawMessage
}

// HasSourceMap reports whether the service returned a source map.
func (r *Result) HasSourceMap() bool { return r != nil && r.SourceMap != "" }

// HasSymbols reports whether the service returned a symbols table.
func (r *Result) HasSymbols() bool { return r != nil && len(r.Symbols) > 0 }
