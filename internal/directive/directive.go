// Package directive parses inline configuration comments.
//
// A directive is a comment of the form
//
//	# depyler: key = value
//
// placed on the line(s) directly above a def or class. The legacy spelling
// "# @depyler:" is accepted too. Directives override pipeline defaults for
// the item they precede.
package directive

import (
	"strconv"
	"strings"
)

// ErrorPolicy selects how a fallible function surfaces failure.
type ErrorPolicy uint8

const (
	// PolicyDefault defers to the pipeline configuration.
	PolicyDefault ErrorPolicy = iota
	// PolicyFailsWith lifts the return type to Result and propagates.
	PolicyFailsWith
	// PolicyPanics keeps the plain return type and panics on failure.
	PolicyPanics
)

func (p ErrorPolicy) String() string {
	switch p {
	case PolicyFailsWith:
		return "fails-with"
	case PolicyPanics:
		return "panics"
	default:
		return "default"
	}
}

// Set holds the directives attached to one function or class.
type Set struct {
	// NasaMode overrides the pipeline-wide flag when non-nil.
	NasaMode *bool
	// ErrorPolicy overrides fallibility handling.
	ErrorPolicy ErrorPolicy
	// TypeOverrides maps parameter names to forced Rust types.
	TypeOverrides map[string]string
	// SkipFixups lists fix-up pass names disabled for this item's file.
	SkipFixups []string
	// Verify overrides the verification level for this item.
	Verify string
	// Unknown collects unrecognized keys for diagnostics.
	Unknown []string
}

// Empty reports whether no directive was recorded.
func (s *Set) Empty() bool {
	return s == nil || (s.NasaMode == nil && s.ErrorPolicy == PolicyDefault &&
		len(s.TypeOverrides) == 0 && len(s.SkipFixups) == 0 && s.Verify == "" &&
		len(s.Unknown) == 0)
}

// ParseComment extracts a key/value pair from a single comment line.
// Returns ok=false for ordinary comments.
func ParseComment(line string) (key, value string, ok bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "#") {
		return "", "", false
	}
	t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
	switch {
	case strings.HasPrefix(t, "@depyler:"):
		t = strings.TrimPrefix(t, "@depyler:")
	case strings.HasPrefix(t, "depyler:"):
		t = strings.TrimPrefix(t, "depyler:")
	default:
		return "", "", false
	}
	k, v, found := strings.Cut(t, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(k)
	value = strings.Trim(strings.TrimSpace(v), `"'`)
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// apply folds one key/value pair into the set.
func (s *Set) apply(key, value string) {
	switch {
	case key == "nasa_mode":
		if b, err := strconv.ParseBool(value); err == nil {
			s.NasaMode = &b
		}
	case key == "error_policy":
		switch value {
		case "fails-with", "fails_with":
			s.ErrorPolicy = PolicyFailsWith
		case "panics":
			s.ErrorPolicy = PolicyPanics
		}
	case strings.HasPrefix(key, "type."):
		param := strings.TrimPrefix(key, "type.")
		if s.TypeOverrides == nil {
			s.TypeOverrides = make(map[string]string)
		}
		s.TypeOverrides[param] = value
	case key == "skip_fixups":
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				s.SkipFixups = append(s.SkipFixups, name)
			}
		}
	case key == "verify":
		s.Verify = value
	default:
		s.Unknown = append(s.Unknown, key)
	}
}

// CollectAbove scans the contiguous comment block ending on the line just
// above defLine (1-based) and returns the directive set found in it.
// Returns nil when the block carries no directives.
func CollectAbove(lines []string, defLine uint32) *Set {
	if defLine < 2 || int(defLine-1) > len(lines) {
		return nil
	}
	var pairs [][2]string
	for i := int(defLine) - 2; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if t == "" || !strings.HasPrefix(t, "#") {
			break
		}
		if k, v, ok := ParseComment(t); ok {
			pairs = append(pairs, [2]string{k, v})
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	s := &Set{}
	// pairs were collected bottom-up; apply top-down so later lines win.
	for i := len(pairs) - 1; i >= 0; i-- {
		s.apply(pairs[i][0], pairs[i][1])
	}
	return s
}
