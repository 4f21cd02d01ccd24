// Package config loads an optional project manifest (silgen.toml) naming
// the source-language identifier stamped into a translated module's
// .source_language, builtin name overrides, and translator limits. CLI
// flags always override values loaded here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the decoded shape of silgen.toml.
type Config struct {
	Translate TranslateConfig `toml:"translate"`
	Builtins  BuiltinsConfig  `toml:"builtins"`
	Limits    LimitsConfig    `toml:"limits"`
}

// TranslateConfig names the source language that `silgen translate <file>`
// stamps into the printed module's .source_language directive.
type TranslateConfig struct {
	SourceLanguage string `toml:"source_language"`
}

// BuiltinsConfig lets a project rename a shim (e.g. if the downstream
// verifier's $builtins namespace uses different names) or declare extra
// host builtins with a fixed signature, beyond the translator's
// generic-variadic-Object fallback for unrecognized callees.
type BuiltinsConfig struct {
	Rename map[string]string  `toml:"rename"`
	Extra  []ExtraBuiltinDecl `toml:"extra"`
}

// ExtraBuiltinDecl is one project-declared host builtin signature. Params
// and Return name a Textual IR type the way it prints (e.g. "PyObject",
// "PyInt", "PyString"); an unrecognized name falls back to PyObject rather
// than rejecting the manifest.
type ExtraBuiltinDecl struct {
	Name     string   `toml:"name"`
	Params   []string `toml:"params"`
	Return   string   `toml:"return"`
	Variadic bool     `toml:"variadic"`
}

// LimitsConfig bounds translator resource use.
type LimitsConfig struct {
	MaxDiagnostics int `toml:"max_diagnostics"`
	Jobs           int `toml:"jobs"`
}

const manifestName = "silgen.toml"

// Default returns the configuration used when no manifest is found.
func Default() Config {
	return Config{
		Translate: TranslateConfig{SourceLanguage: "python"},
		Limits:    LimitsConfig{MaxDiagnostics: 100, Jobs: 0},
	}
}

// Find walks upward from startDir looking for silgen.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("config: resolving start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("config: stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes path into a Config, filling any field the manifest leaves
// unset from Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.Translate.SourceLanguage) == "" {
		cfg.Translate.SourceLanguage = "python"
	}
	if cfg.Limits.MaxDiagnostics <= 0 {
		cfg.Limits.MaxDiagnostics = 100
	}
	return cfg, nil
}

// LoadFromDir finds and loads the nearest manifest above dir, or returns
// Default() if none exists.
func LoadFromDir(dir string) (Config, string, error) {
	path, ok, err := Find(dir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}
