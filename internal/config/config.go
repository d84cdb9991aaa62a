// Package config discovers and loads the shield.config file.
// Built-in defaults are merged under whatever the discovered file sets;
// token fields are split out so they never reach the remote options payload.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	serr "shield/cli/internal/errors"
)

// FileName is the canonical config file name.
const FileName = "shield.config.json"

// Token field spellings accepted in a config file.
const (
	TokenField      = "projectToken"
	TokenFieldAlias = "project_token"
)

// candidateNames are probed in order in every searched directory.
var candidateNames = []string{FileName, "shield.config.yaml", "shield.config.yml"}

// Config is the merged configuration for one run.
type Config struct {
	// Options holds protection options sent to the service.
	Options map[string]any
	// ProjectToken is the value of the projectToken field.
	ProjectToken string
	// ProjectTokenAlias is the value of the project_token field.
	ProjectTokenAlias string
	// Path is the file the config came from; empty when defaults were used.
	Path string
}

// Defaults returns a fresh copy of the built-in protection options.
func Defaults() map[string]any {
	return map[string]any{
		"controlFlowFlattening": true,
		"debugProtection":       false,
		"devtoolsBlocking":      true,
	}
}

// Default returns a Config holding only the built-in defaults.
func Default() Config {
	return Config{Options: Defaults()}
}

// Obfuscation returns a copy of the protection options for a request payload.
func (c Config) Obfuscation() map[string]any {
	out := make(map[string]any, len(c.Options))
	maps.Copy(out, c.Options)
	return out
}

// Resolve finds and loads the configuration.
//
// With explicitPath set, that file must exist; there is no fallback to
// discovery. Otherwise the working directory is probed first, then the
// parent directory of each input file in first-seen order. When nothing is
// found the defaults are returned, unless required is set.
func Resolve(explicitPath string, files []string, required bool) (Config, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return Config{}, serr.Wrap(serr.ConfigNotFound, fmt.Sprintf("config file not found: %s", explicitPath), err).
				WithHint("check the path passed to --config")
		}
		return Load(explicitPath)
	}

	for _, dir := range SearchDirs(files) {
		if p := findIn(dir); p != "" {
			pterm.Debug.Printfln("config: using %s", p)
			return Load(p)
		}
	}

	if required {
		return Config{}, serr.New(serr.ConfigNotFound, "no "+FileName+" found").WithHint(requiredHint())
	}
	pterm.Debug.Println("config: no config file found, using defaults")
	return Default(), nil
}

// SearchDirs lists the directories Resolve probes, in order, without duplicates.
func SearchDirs(files []string) []string {
	var dirs []string
	seen := make(map[string]struct{})
	add := func(d string) {
		if abs, err := filepath.Abs(d); err == nil {
			d = abs
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		dirs = append(dirs, d)
	}
	if wd, err := os.Getwd(); err == nil {
		add(wd)
	}
	for _, f := range files {
		add(filepath.Dir(f))
	}
	return dirs
}

func findIn(dir string) string {
	for _, name := range candidateNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func requiredHint() string {
	return strings.Join([]string{
		"Provide a configuration in one of these ways:",
		"  • create " + FileName + " in the current directory",
		"  • create " + FileName + " next to the files you protect",
		"  • pass an explicit path with --config <path>",
	}, "\n")
}

// Load reads a config file and merges it over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, serr.Wrap(serr.ConfigNotFound, fmt.Sprintf("config file not found: %s", path), err)
		}
		return Config{}, serr.Wrap(serr.ConfigParse, fmt.Sprintf("read config %s", path), err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, serr.Wrap(serr.ConfigParse, fmt.Sprintf("invalid JSON in %s", path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, serr.Wrap(serr.ConfigParse, fmt.Sprintf("invalid YAML in %s", path), err)
		}
	default:
		return Config{}, serr.Newf(serr.ConfigFormat, "unsupported config format: %s", path).
			WithHint("use a .json, .yaml or .yml config file")
	}
	if raw == nil {
		raw = map[string]any{}
	}

	c := merge(raw)
	c.Path = path
	return c, nil
}

// merge lays raw over the defaults and pulls out the token fields.
func merge(raw map[string]any) Config {
	c := Config{Options: Defaults()}
	for k, v := range raw {
		switch k {
		case TokenField:
			c.ProjectToken = stringValue(v)
		case TokenFieldAlias:
			c.ProjectTokenAlias = stringValue(v)
		default:
			c.Options[k] = v
		}
	}
	return c
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
