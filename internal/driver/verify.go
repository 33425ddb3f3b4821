package driver

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"depyler/internal/config"
	"depyler/internal/diag"
)

// VerifyArtifact runs the post-generation checks selected by the
// verification level and returns the failures found. The core pipeline
// never verifies; this is driver territory.
//
//	none:   nothing
//	basic:  emitted Rust is non-empty and delimiter-balanced
//	full:   basic, plus the manifest decodes as TOML
//	strict: full, plus zero error diagnostics
func VerifyArtifact(level config.VerificationLevel, a *Artifact) []string {
	var failures []string
	if level == config.VerifyNone || level == "" {
		return nil
	}

	if strings.TrimSpace(a.Rust) == "" {
		failures = append(failures, "emitted source is empty")
	}
	if msg := delimiterCheck(a.Rust); msg != "" {
		failures = append(failures, msg)
	}
	if level == config.VerifyBasic {
		return failures
	}

	var decoded map[string]interface{}
	if err := toml.Unmarshal([]byte(a.Manifest), &decoded); err != nil {
		failures = append(failures, fmt.Sprintf("manifest is not valid TOML: %v", err))
	}
	if level == config.VerifyFull {
		return failures
	}

	for _, d := range a.Diags {
		if d.Severity == diag.SevError {
			failures = append(failures, fmt.Sprintf("%s: %s", d.Code, d.Message))
		}
	}
	return failures
}

// delimiterCheck scans the emitted source for unbalanced braces,
// brackets, and parens outside string literals and comments.
func delimiterCheck(src string) string {
	var braces, brackets, parens int
	for _, line := range strings.Split(src, "\n") {
		code := stripLiterals(line)
		for i := 0; i < len(code); i++ {
			switch code[i] {
			case '{':
				braces++
			case '}':
				braces--
			case '[':
				brackets++
			case ']':
				brackets--
			case '(':
				parens++
			case ')':
				parens--
			}
		}
	}
	switch {
	case braces != 0:
		return fmt.Sprintf("unbalanced braces (%+d)", braces)
	case brackets != 0:
		return fmt.Sprintf("unbalanced brackets (%+d)", brackets)
	case parens != 0:
		return fmt.Sprintf("unbalanced parens (%+d)", parens)
	}
	return ""
}

// stripLiterals blanks string and char literal contents and drops line
// comments so delimiters inside them do not count.
func stripLiterals(line string) []byte {
	out := make([]byte, 0, len(line))
	inStr := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr {
			if c == '\\' {
				i++
				continue
			}
			if c == '"' {
				inStr = false
				out = append(out, c)
			}
			continue
		}
		if c == '"' {
			inStr = true
			out = append(out, c)
			continue
		}
		if c == '\'' && i+2 < len(line) {
			// char literal, possibly escaped
			if line[i+1] == '\\' && i+3 < len(line) && line[i+3] == '\'' {
				i += 3
				continue
			}
			if line[i+2] == '\'' {
				i += 2
				continue
			}
		}
		if c == '/' && i+1 < len(line) && line[i+1] == '/' {
			break
		}
		out = append(out, c)
	}
	return out
}
