package fixup

import (
	"regexp"
	"strings"
)

// state accumulates facts the scanning pass extracts from the emitted
// source so later passes can check their preconditions.
type state struct {
	// options holds parameter and local names statically known to be
	// Option-typed.
	options map[string]bool
	// optionFields holds struct field names declared as Option<...>.
	optionFields map[string]bool
	// resultFns holds function names whose signature returns Result.
	resultFns map[string]bool
}

func newState() *state {
	return &state{
		options:      make(map[string]bool),
		optionFields: make(map[string]bool),
		resultFns:    make(map[string]bool),
	}
}

// maskLine blanks string literal contents so token scans cannot be
// confused by braces or keywords inside strings. Escapes are consumed
// pairwise.
func maskLine(line string) string {
	out := []byte(line)
	in := false
	for i := 0; i < len(out); i++ {
		c := out[i]
		if in {
			if c == '\\' && i+1 < len(out) {
				out[i] = ' '
				out[i+1] = ' '
				i++
				continue
			}
			if c == '"' {
				in = false
				continue
			}
			out[i] = ' '
			continue
		}
		if c == '"' {
			in = true
		}
	}
	return string(out)
}

// braceDelta counts opening minus closing braces on a masked line.
func braceDelta(masked string) int {
	return strings.Count(masked, "{") - strings.Count(masked, "}")
}

func bracesBalanced(lines []string) bool {
	depth := 0
	for _, l := range lines {
		depth += braceDelta(maskLine(l))
		if depth < 0 {
			return false
		}
	}
	return depth == 0
}

// matchParen returns the index of the parenthesis closing the one at
// open, or -1 when the line ends first. The caller masks the line.
func matchParen(masked string, open int) int {
	depth := 0
	for i := open; i < len(masked); i++ {
		switch masked[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var (
	fnStartRE     = regexp.MustCompile(`\bfn\s+(\w+)`)
	optionParamRE = regexp.MustCompile(`(\w+)\s*:\s*&?(?:mut\s+)?Option<`)
	optionLetRE   = regexp.MustCompile(`\blet\s+(?:mut\s+)?(\w+)\s*:\s*Option<`)
	optionGetRE   = regexp.MustCompile(`\blet\s+(?:mut\s+)?(\w+)\s*=\s*\w[\w.]*\.get\(.*\)\.cloned\(\);`)
	optionFieldRE = regexp.MustCompile(`^\s*(?:pub\s+)?(\w+)\s*:\s*Option<.*>,?\s*$`)
	closureRE     = regexp.MustCompile(`\|[^|]*\|\s*(->\s*[^{]+)?\{`)
)

// signature gathers a possibly multi-line fn signature starting at
// lines[i] and returns the joined text up to the opening brace plus the
// index of the line holding the brace.
func signature(lines []string, i int) (string, int) {
	var b strings.Builder
	for j := i; j < len(lines); j++ {
		masked := maskLine(lines[j])
		b.WriteString(masked)
		b.WriteByte(' ')
		if strings.Contains(masked, "{") || strings.HasSuffix(strings.TrimSpace(masked), ";") {
			return b.String(), j
		}
	}
	return b.String(), len(lines) - 1
}

// passOptionParams scans signatures, lets, and struct fields for
// Option-typed names. It records facts for the passes behind it and
// never rewrites anything itself, so it runs first.
func passOptionParams(st *state, lines []string) bool {
	for i := 0; i < len(lines); i++ {
		masked := maskLine(lines[i])
		if m := fnStartRE.FindStringSubmatch(masked); m != nil {
			sig, last := signature(lines, i)
			head, _, _ := strings.Cut(sig, "{")
			for _, pm := range optionParamRE.FindAllStringSubmatch(head, -1) {
				st.options[pm[1]] = true
			}
			if returnsResult(head) {
				st.resultFns[m[1]] = true
			}
			i = last
			continue
		}
		if m := optionLetRE.FindStringSubmatch(masked); m != nil {
			st.options[m[1]] = true
		}
		if m := optionGetRE.FindStringSubmatch(masked); m != nil {
			st.options[m[1]] = true
		}
		if m := optionFieldRE.FindStringSubmatch(masked); m != nil {
			st.optionFields[m[1]] = true
			st.options[m[1]] = true
		}
	}
	return false
}

// returnsResult checks a signature head (text before the opening
// brace) for a Result return type.
func returnsResult(head string) bool {
	_, ret, ok := strings.Cut(head, "->")
	if !ok {
		return false
	}
	return strings.Contains(ret, "Result<")
}

// indentOf returns the leading whitespace of a line.
func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
