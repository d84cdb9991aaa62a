// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the CLI can surface carries a machine-readable Kind so callers
// can decide whether it ends the run or only the current file, without
// matching on message text.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConfigNotFound indicates an explicit or required config file is missing.
	ConfigNotFound Kind = "config_not_found"
	// ConfigParse indicates the config file exists but is malformed.
	ConfigParse Kind = "config_parse"
	// ConfigFormat indicates the config file has an unsupported extension.
	ConfigFormat Kind = "config_format"
	// TokenMissing indicates no project token could be resolved.
	TokenMissing Kind = "token_missing"
	// TokenInvalid indicates the service rejected the project token.
	TokenInvalid Kind = "token_invalid"
	// OptionConflict indicates an illegal combination of CLI options.
	OptionConflict Kind = "option_conflict"
	// FileIO indicates a per-file read/write/mkdir failure.
	FileIO Kind = "file_io"
	// AlreadyProtected indicates the input already carries a watermark.
	AlreadyProtected Kind = "already_protected"
	// RemoteProtocol indicates a 200 response without protected output.
	RemoteProtocol Kind = "remote_protocol"
	// RemoteService indicates a non-200 response from the service.
	RemoteService Kind = "remote_service"
	// Network indicates a connection-level failure.
	Network Kind = "network"
)

// Fatal reports whether errors of this kind end the whole run.
func (k Kind) Fatal() bool {
	switch k {
	case ConfigNotFound, ConfigParse, ConfigFormat, TokenMissing, TokenInvalid, OptionConflict:
		return true
	}
	return false
}

// E wraps an error with kind and human-friendly message.
// Hint, when set, tells the user how to fix the problem. Cause is reachable
// through Unwrap but, unlike Err, never appears in Error().
type E struct {
	Kind    Kind
	Message string
	Hint    string
	Err     error
	Cause   error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *E) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Cause
}

// WithHint returns e with its remediation hint set.
func (e *E) WithHint(hint string) *E {
	e.Hint = hint
	return e
}

// WithCause attaches an underlying error without changing the message.
func (e *E) WithCause(cause error) *E {
	e.Cause = cause
	return e
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HintOf returns the remediation hint attached to err, if any.
func HintOf(err error) string {
	var e *E
	if stderrors.As(err, &e) {
		return e.Hint
	}
	return ""
}
