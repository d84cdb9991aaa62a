// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package token picks the project token for a run from the places a user
// can put it.
package token

import (
	"os"
	"strings"

	"shield/cli/internal/config"
)

// Environment variables checked for a token, in priority order.
const (
	EnvPrimary = "SHIELD_PROJECT_TOKEN"
	EnvLegacy  = "SHIELD_TOKEN"
)

// Source names where a resolved token came from.
type Source string

const (
	SourceNone     Source = ""
	SourceFlag     Source = "--token flag"
	SourceEnv      Source = EnvPrimary
	SourceEnvAlias Source = EnvLegacy
	SourceConfig   Source = config.TokenField
	SourceConfigAl Source = config.TokenFieldAlias
	SourceKeychain Source = "keychain"
)

// Lookup reads an environment variable. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// Resolve returns the first non-empty token from, in order: the CLI flag,
// EnvPrimary, EnvLegacy, the config projectToken field, then its alias.
func Resolve(cliToken string, cfg config.Config, env Lookup) (string, Source) {
	if env == nil {
		env = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := env(key)
		return strings.TrimSpace(v)
	}

	candidates := []struct {
		value  string
		source Source
	}{
		{strings.TrimSpace(cliToken), SourceFlag},
		{get(EnvPrimary), SourceEnv},
		{get(EnvLegacy), SourceEnvAlias},
		{cfg.ProjectToken, SourceConfig},
		{cfg.ProjectTokenAlias, SourceConfigAl},
	}
	for _, c := range candidates {
		if c.value != "" {
			return c.value, c.source
		}
	}
	return "", SourceNone
}

// MissingHint lists every way to supply a token.
func MissingHint() string {
	return strings.Join([]string{
		"Provide a project token in one of these ways:",
		"  • pass --token <token>",
		"  • set the " + EnvPrimary + " environment variable (or legacy " + EnvLegacy + ")",
		"  • add \"" + config.TokenField + "\" to " + config.FileName,
		"  • store it in the OS keychain with: shield token set <token>",
	}, "\n")
}
