package assemble

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"depyler/internal/codegen"
)

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

type cargoDep struct {
	Version  string   `toml:"version"`
	Features []string `toml:"features"`
}

type cargoManifest struct {
	Package      cargoPackage           `toml:"package"`
	Dependencies map[string]interface{} `toml:"dependencies,omitempty"`
}

// Manifest renders a Cargo.toml for the crates the emitted code needs.
// Crate versions are validated as semver constraints; a crate listed
// twice keeps the higher minimal version and the union of features.
func Manifest(deps []codegen.CrateDep, name, version string) (string, error) {
	if version == "" {
		version = "0.1.0"
	}
	if _, err := semver.NewVersion(version); err != nil {
		return "", fmt.Errorf("package version %q: %w", version, err)
	}

	merged, err := mergeDeps(deps)
	if err != nil {
		return "", err
	}

	m := cargoManifest{
		Package: cargoPackage{Name: crateName(name), Version: version, Edition: "2021"},
	}
	if len(merged) > 0 {
		m.Dependencies = make(map[string]interface{}, len(merged))
		for _, d := range merged {
			if len(d.Features) == 0 {
				m.Dependencies[d.Name] = d.Version
			} else {
				m.Dependencies[d.Name] = cargoDep{Version: d.Version, Features: d.Features}
			}
		}
	}

	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(m); err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	return b.String(), nil
}

// mergeDeps validates every version constraint and collapses duplicate
// crates onto the higher minimal version.
func mergeDeps(deps []codegen.CrateDep) ([]codegen.CrateDep, error) {
	byName := make(map[string]int)
	var out []codegen.CrateDep
	for _, d := range deps {
		if _, err := semver.NewConstraint(d.Version); err != nil {
			return nil, fmt.Errorf("crate %s version %q: %w", d.Name, d.Version, err)
		}
		i, ok := byName[d.Name]
		if !ok {
			byName[d.Name] = len(out)
			out = append(out, d)
			continue
		}
		higher, err := higherMinimum(out[i].Version, d.Version)
		if err != nil {
			return nil, fmt.Errorf("crate %s: %w", d.Name, err)
		}
		out[i].Version = higher
		out[i].Features = unionFeatures(out[i].Features, d.Features)
	}
	return out, nil
}

// higherMinimum compares two constraint strings by their minimal
// versions, coercing partials like "1" or "0.22".
func higherMinimum(a, b string) (string, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return "", fmt.Errorf("version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return "", fmt.Errorf("version %q: %w", b, err)
	}
	if vb.GreaterThan(va) {
		return b, nil
	}
	return a, nil
}

func unionFeatures(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, f := range a {
		seen[f] = true
	}
	for _, f := range b {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// crateName maps a source module name onto a valid crate name.
func crateName(name string) string {
	name = strings.TrimSuffix(name, ".py")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
	if name == "" {
		name = "transpiled"
	}
	return name
}
