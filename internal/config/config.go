// Package config carries pipeline-wide settings.
//
// Defaults come from an optional JSON file (--config) or a depyler.toml
// project manifest; per-function directives override individual fields
// during lowering and codegen.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// VerificationLevel selects post-generation validation done by the driver.
type VerificationLevel string

const (
	VerifyNone   VerificationLevel = "none"
	VerifyBasic  VerificationLevel = "basic"
	VerifyFull   VerificationLevel = "full"
	VerifyStrict VerificationLevel = "strict"
)

// Valid reports whether the level is one of the recognized values.
func (v VerificationLevel) Valid() bool {
	switch v {
	case VerifyNone, VerifyBasic, VerifyFull, VerifyStrict:
		return true
	}
	return false
}

// Config is threaded through the whole pipeline. A single invocation of the
// pipeline is a pure function of (source, Config, directives).
type Config struct {
	// NasaMode enables the universal dynamic value carrier for
	// heterogeneous containers and disables ambiguous emissions.
	NasaMode bool `json:"nasa_mode" toml:"nasa_mode"`

	// VerificationLevel is consumed by the driver, not the core.
	VerificationLevel VerificationLevel `json:"verification_level" toml:"verification_level"`

	// ForceDictValueOptionWrap is a transient flag set during
	// list-of-dicts lowering when any element dict has missing keys.
	// It can be pre-set here for testing; codegen normally toggles it.
	ForceDictValueOptionWrap bool `json:"force_dict_value_option_wrap" toml:"force_dict_value_option_wrap"`

	// ParserCommand invokes the external Python parser. Empty means the
	// built-in python3 dump script.
	ParserCommand []string `json:"parser_command" toml:"parser_command"`

	// MaxDiagnostics bounds the diagnostic bag per file.
	MaxDiagnostics int `json:"max_diagnostics" toml:"max_diagnostics"`

	// StrictMode treats any diagnostic as fatal.
	StrictMode bool `json:"strict" toml:"strict"`

	// CacheDir overrides the artifact cache location; empty uses the
	// XDG default. "-" disables caching.
	CacheDir string `json:"cache_dir" toml:"cache_dir"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		VerificationLevel: VerifyBasic,
		MaxDiagnostics:    100,
	}
}

// LoadJSON reads a JSON config file and overlays it on the defaults.
func LoadJSON(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.VerificationLevel == "" {
		cfg.VerificationLevel = VerifyBasic
	}
	if !cfg.VerificationLevel.Valid() {
		return cfg, fmt.Errorf("config %s: bad verification_level %q", path, cfg.VerificationLevel)
	}
	return cfg, nil
}

// Project is a depyler.toml manifest at the root of a transpile target.
type Project struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Transpile Config `toml:"transpile"`
}

// ManifestName is the project manifest filename.
const ManifestName = "depyler.toml"

// LoadProject reads depyler.toml from dir. Missing manifest is not an
// error; the zero Project plus defaults is returned.
func LoadProject(dir string) (Project, bool, error) {
	var p Project
	p.Transpile = Default()
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return p, false, nil
		}
		return p, false, err
	}
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return p, false, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Transpile.MaxDiagnostics == 0 {
		p.Transpile.MaxDiagnostics = 100
	}
	if p.Transpile.VerificationLevel == "" {
		p.Transpile.VerificationLevel = VerifyBasic
	}
	return p, true, nil
}
