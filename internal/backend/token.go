// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"

	serr "shield/cli/internal/errors"
	"shield/cli/internal/httperrors"
)

// verifyBody is the empty protection call used to check a token.
type verifyBody struct {
	Code   string         `json:"code"`
	Config map[string]any `json:"config"`
}

// VerifyToken sends an empty protection request; the service answers 200
// only for tokens it recognizes.
func (h *HTTP) VerifyToken(ctx context.Context, token string) error {
	resp, err := h.post(ctx, token, verifyBody{Code: "", Config: map[string]any{}})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		drain(resp.Body)
		return nil
	}
	e := statusError(resp)
	if httperrors.IsAuthStatus(resp.StatusCode) {
		e.Kind = serr.TokenInvalid
		e.Hint = "Check the token in your Shield dashboard, or run 'shield token set <token>' to store a new one."
	}
	return e
}
