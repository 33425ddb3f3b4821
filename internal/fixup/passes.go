package fixup

import (
	"regexp"
	"strings"
)

type frame struct {
	depth  int
	result bool
}

var returnRE = regexp.MustCompile(`^(\s*)return(\s+(.*?))?;\s*$`)

// passBareReturn wraps plain returns as Ok(...) inside functions whose
// signature returns Result. Closure bodies with non-Result signatures
// shadow the enclosing function, so their returns stay bare.
func passBareReturn(st *state, lines []string) bool {
	changed := false
	depth := 0
	var frames []frame
	for i := 0; i < len(lines); i++ {
		masked := maskLine(lines[i])
		if fnStartRE.MatchString(masked) {
			sig, last := signature(lines, i)
			head, _, found := strings.Cut(sig, "{")
			for j := i; j <= last; j++ {
				depth += braceDelta(maskLine(lines[j]))
			}
			if found {
				frames = append(frames, frame{depth: depth, result: returnsResult(head)})
			}
			i = last
			continue
		}
		if m := closureRE.FindStringSubmatch(masked); m != nil && braceDelta(masked) > 0 {
			depth += braceDelta(masked)
			frames = append(frames, frame{depth: depth, result: strings.Contains(m[1], "Result<")})
			continue
		}
		if len(frames) > 0 && frames[len(frames)-1].result {
			if rewritten, ok := wrapReturn(lines[i]); ok {
				lines[i] = rewritten
				changed = true
			}
		}
		depth += braceDelta(masked)
		for len(frames) > 0 && depth < frames[len(frames)-1].depth {
			frames = frames[:len(frames)-1]
		}
	}
	return changed
}

func wrapReturn(line string) (string, bool) {
	m := returnRE.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	expr := strings.TrimSpace(m[3])
	if strings.HasPrefix(expr, "Ok(") || strings.HasPrefix(expr, "Err(") {
		return line, false
	}
	if expr == "" {
		return m[1] + "return Ok(());", true
	}
	return m[1] + "return Ok(" + expr + ");", true
}

var callHeadRE = regexp.MustCompile(`^\s*(\w+)\s*\(`)

// passDoubleOkWrap propagates calls wrapped twice in the result
// carrier: Ok(f(...)) where f itself returns Result becomes
// Ok(f(...)?).
func passDoubleOkWrap(st *state, lines []string) bool {
	changed := false
	for i, line := range lines {
		masked := maskLine(line)
		idx := 0
		for {
			j := strings.Index(masked[idx:], "Ok(")
			if j < 0 {
				break
			}
			j += idx
			inner := j + len("Ok(")
			m := callHeadRE.FindStringSubmatch(masked[inner:])
			if m == nil || !st.resultFns[m[1]] {
				idx = inner
				continue
			}
			openCall := inner + len(m[0]) - 1
			closeCall := matchParen(masked, openCall)
			if closeCall < 0 || closeCall+1 >= len(masked) || masked[closeCall+1] != ')' {
				idx = inner
				continue
			}
			line = line[:closeCall+1] + "?" + line[closeCall+1:]
			masked = maskLine(line)
			changed = true
			idx = closeCall + 2
		}
		lines[i] = line
	}
	return changed
}

var letDiscardRE = regexp.MustCompile(`^(\s*)let _ = (Ok\(.*\));\s*$`)

// passLetDiscardTail turns a discarded result assignment directly
// before a closing brace into the block's tail expression.
func passLetDiscardTail(st *state, lines []string) bool {
	changed := false
	for i := 0; i+1 < len(lines); i++ {
		m := letDiscardRE.FindStringSubmatch(lines[i])
		if m == nil || strings.TrimSpace(lines[i+1]) != "}" {
			continue
		}
		lines[i] = m[1] + m[2]
		changed = true
	}
	return changed
}

var castRE = regexp.MustCompile(`\.(pop|last|first)\(\)\) as (u8|u16|u32|u64|usize|i8|i16|i32|i64|isize|f32|f64)\b`)

// passNumericCast unwraps option-returning sequence methods under a
// numeric cast: (v.pop()) as u32 becomes (v.pop().unwrap()) as u32.
func passNumericCast(st *state, lines []string) bool {
	changed := false
	for i, line := range lines {
		out := castRE.ReplaceAllString(line, ".$1().unwrap()) as $2")
		if out != line {
			lines[i] = out
			changed = true
		}
	}
	return changed
}

var isNoneRE = regexp.MustCompile(`(self\.)?(\w+)\.is_none\(\)`)

// passIsNoneNonOption replaces is_none() on names that are statically
// not Option-typed with false. Tracked option parameters, locals, and
// fields are left alone.
func passIsNoneNonOption(st *state, lines []string) bool {
	changed := false
	for i, line := range lines {
		masked := maskLine(line)
		matches := isNoneRE.FindAllStringSubmatchIndex(masked, -1)
		for k := len(matches) - 1; k >= 0; k-- {
			m := matches[k]
			name := masked[m[4]:m[5]]
			if m[2] >= 0 {
				if st.optionFields[name] {
					continue
				}
			} else {
				if st.options[name] || st.optionFields[name] {
					continue
				}
				// part of a longer chain, the receiver is unknown
				if m[4] > 0 && masked[m[4]-1] == '.' {
					continue
				}
			}
			line = line[:m[0]] + "false" + line[m[1]:]
			changed = true
		}
		lines[i] = line
	}
	return changed
}

var selfAssignRE = regexp.MustCompile(`^(\s*)self\.(\w+) = (.*);\s*$`)

// passOptionFieldAssign wraps assignments to Option-typed struct
// fields in Some when the right-hand side is not already optional.
func passOptionFieldAssign(st *state, lines []string) bool {
	changed := false
	for i, line := range lines {
		m := selfAssignRE.FindStringSubmatch(line)
		if m == nil || !st.optionFields[m[2]] {
			continue
		}
		value := m[3]
		if value == "None" || strings.HasPrefix(value, "Some(") || st.options[value] {
			continue
		}
		lines[i] = m[1] + "self." + m[2] + " = Some(" + value + ");"
		changed = true
	}
	return changed
}

// passContainsKeyOptional lowers contains_key on an Option-wrapped map
// through as_ref, so the emitted membership test compiles against the
// optional binding.
func passContainsKeyOptional(st *state, lines []string) bool {
	changed := false
	for i, line := range lines {
		if strings.Contains(line, ".as_ref().map_or(false, |m| m.contains_key") {
			continue
		}
		for name := range st.options {
			needle := name + ".contains_key("
			masked := maskLine(line)
			idx := strings.Index(masked, needle)
			if idx < 0 || (idx > 0 && (masked[idx-1] == '.' || isWordByte(masked[idx-1]))) {
				continue
			}
			open := idx + len(needle) - 1
			closing := matchParen(masked, open)
			if closing < 0 {
				continue
			}
			args := line[open+1 : closing]
			line = line[:idx] + name + ".as_ref().map_or(false, |m| m.contains_key(" + args + "))" + line[closing+1:]
			lines[i] = line
			changed = true
			break
		}
	}
	return changed
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

var isSomeGuardRE = regexp.MustCompile(`^\s*if (\w+)\.is_some\(\) \{\s*$`)

type guard struct {
	name  string
	depth int
}

// passGuardedPush unwraps a tracked option passed to push or extend
// inside the block guarded by its own is_some check.
func passGuardedPush(st *state, lines []string) bool {
	changed := false
	depth := 0
	var guards []guard
	for i, line := range lines {
		masked := maskLine(line)
		if m := isSomeGuardRE.FindStringSubmatch(masked); m != nil && st.options[m[1]] {
			depth += braceDelta(masked)
			guards = append(guards, guard{name: m[1], depth: depth})
			continue
		}
		for _, g := range guards {
			for _, call := range []string{".push(", ".extend("} {
				needle := call + g.name + ")"
				if !strings.Contains(line, needle) {
					continue
				}
				line = strings.ReplaceAll(line, needle, call+g.name+".clone().unwrap())")
				lines[i] = line
				changed = true
			}
		}
		depth += braceDelta(masked)
		for len(guards) > 0 && depth < guards[len(guards)-1].depth {
			guards = guards[:len(guards)-1]
		}
	}
	return changed
}
