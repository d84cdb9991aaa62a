// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"os"
	"strings"
)

// DefaultBaseURL is the public protection service.
const DefaultBaseURL = "https://api.shieldjs.dev"

// EnvBaseURL overrides DefaultBaseURL.
const EnvBaseURL = "SHIELD_API_URL"

// Platform is the fixed platform segment of the protect path.
const Platform = "javascript"

// BaseURL returns the service URL, honoring EnvBaseURL.
func BaseURL() string {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return v
	}
	return DefaultBaseURL
}

// New creates a backend API implementation against baseURL.
// Returns HTTP client (real backend).
func New(baseURL string) API {
	return newHTTP(baseURL)
}
