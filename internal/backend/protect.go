// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pterm/pterm"

	serr "shield/cli/internal/errors"
	"shield/cli/internal/watermark"
)

// protectBody is the JSON payload of a protection call.
type protectBody struct {
	Code          string         `json:"code"`
	ObfuscationID string         `json:"obfuscationID"`
	ProjectToken  string         `json:"projectToken"`
	Config        map[string]any `json:"config"`
}

// protectResponse is the JSON shape of a 200 response.
type protectResponse struct {
	Output    *string         `json:"output"`
	SourceMap json.RawMessage `json:"sourceMap"`
	Symbols   json.RawMessage `json:"symbols"`
}

// Protect posts the code to the protect endpoint.
// Every successful result is prefixed with exactly one watermark line.
func (h *HTTP) Protect(ctx context.Context, r Request) (*Result, error) {
	options := r.Options
	if options == nil {
		options = map[string]any{}
	}
	id := h.newID()
	started := time.Now()
	pterm.Debug.Printfln("backend: protect request %s (%d bytes)", id, len(r.Code))

	resp, err := h.post(ctx, r.Token, protectBody{
		Code:          r.Code,
		ObfuscationID: id,
		ProjectToken:  r.Token,
		Config:        options,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out protectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, serr.Wrap(serr.RemoteProtocol, "Invalid response from the protection service", err)
	}
	if out.Output == nil {
		return nil, serr.New(serr.RemoteProtocol, "No protected code received from the protection service").
			WithCause(errNoOutput)
	}
	pterm.Debug.Printfln("backend: protect request %s done in %s", id, time.Since(started).Round(time.Millisecond))

	return &Result{
		Code:      watermark.Apply(*out.Output),
		SourceMap: rawText(out.SourceMap),
		Symbols:   rawJSON(out.Symbols),
	}, nil
}

// rawText returns a JSON string's value, or the raw JSON for any other value.
func rawText(m json.RawMessage) string {
	if len(m) == 0 || string(m) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return string(m)
}

// rawJSON returns m unless it is empty or null.
func rawJSON(m json.RawMessage) json.RawMessage {
	if len(m) == 0 || string(m) == "null" {
		return nil
	}
	return m
}
