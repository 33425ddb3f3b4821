package fixup

import (
	"strings"
	"testing"

	"depyler/internal/diag"
)

func run(t *testing.T, src string, skip ...string) Result {
	t.Helper()
	return Run(src, skip, 64)
}

func fired(res Result, name string) bool {
	for _, n := range res.Fired {
		if n == name {
			return true
		}
	}
	return false
}

func TestBareReturnWrappedInResultFunction(t *testing.T) {
	src := strings.Join([]string{
		"fn load(path: &str) -> Result<String, Box<dyn std::error::Error>> {",
		"    let data = read(path)?;",
		"    return data;",
		"}",
	}, "\n")
	res := run(t, src)
	if !fired(res, "bare_return") {
		t.Fatalf("bare_return did not fire; output:\n%s", res.Src)
	}
	if !strings.Contains(res.Src, "return Ok(data);") {
		t.Errorf("bare return not wrapped:\n%s", res.Src)
	}
}

func TestBareReturnRespectsNonResultClosure(t *testing.T) {
	src := strings.Join([]string{
		"fn outer() -> Result<i64, Box<dyn std::error::Error>> {",
		"    let f = |x: i64| {",
		"        return x;",
		"    };",
		"    return compute();",
		"}",
	}, "\n")
	res := run(t, src)
	if !strings.Contains(res.Src, "        return x;") {
		t.Errorf("closure return must stay bare:\n%s", res.Src)
	}
	if !strings.Contains(res.Src, "return Ok(compute());") {
		t.Errorf("function return not wrapped:\n%s", res.Src)
	}
}

func TestBareReturnLeavesPlainFunctions(t *testing.T) {
	src := strings.Join([]string{
		"fn twice(x: i64) -> i64 {",
		"    return x * 2;",
		"}",
	}, "\n")
	res := run(t, src)
	if fired(res, "bare_return") {
		t.Errorf("pass fired on non-result function:\n%s", res.Src)
	}
}

func TestDoubleOkWrapPropagates(t *testing.T) {
	src := strings.Join([]string{
		"fn parse_num(s: &str) -> Result<i64, Box<dyn std::error::Error>> {",
		"    Ok(s.trim().parse::<i64>()?)",
		"}",
		"fn outer(s: &str) -> Result<i64, Box<dyn std::error::Error>> {",
		"    return Ok(parse_num(s));",
		"}",
	}, "\n")
	res := run(t, src)
	if !strings.Contains(res.Src, "return Ok(parse_num(s)?);") {
		t.Errorf("nested result call not propagated:\n%s", res.Src)
	}
}

func TestIsNoneOnNonOptionBecomesFalse(t *testing.T) {
	src := strings.Join([]string{
		"fn check(a: Option<i64>, b: i64) -> bool {",
		"    if a.is_none() {",
		"        return true;",
		"    }",
		"    b.is_none()",
		"}",
	}, "\n")
	res := run(t, src)
	if !strings.Contains(res.Src, "if a.is_none() {") {
		t.Errorf("tracked option rewritten:\n%s", res.Src)
	}
	if !strings.Contains(res.Src, "    false\n") {
		t.Errorf("non-option is_none not folded:\n%s", res.Src)
	}
}

func TestLetDiscardBecomesTailExpression(t *testing.T) {
	src := strings.Join([]string{
		"fn total() -> Result<i64, Box<dyn std::error::Error>> {",
		"    let _ = Ok(sum);",
		"}",
	}, "\n")
	res := run(t, src)
	if !strings.Contains(res.Src, "    Ok(sum)\n}") {
		t.Errorf("tail discard not lifted:\n%s", res.Src)
	}
}

func TestNumericCastUnwrapsOptionMethod(t *testing.T) {
	src := "let n = (values.pop()) as u32;"
	res := run(t, src)
	if res.Src != "let n = (values.pop().unwrap()) as u32;" {
		t.Errorf("cast not repaired: %q", res.Src)
	}
}

func TestOptionFieldAssignmentWrapped(t *testing.T) {
	src := strings.Join([]string{
		"pub struct Cache {",
		"    pub entry: Option<String>,",
		"}",
		"fn set(value: String) {",
		"    self.entry = value;",
		"    self.entry = None;",
		"}",
	}, "\n")
	res := run(t, src)
	if !strings.Contains(res.Src, "self.entry = Some(value);") {
		t.Errorf("option field assignment not wrapped:\n%s", res.Src)
	}
	if !strings.Contains(res.Src, "self.entry = None;") {
		t.Errorf("None assignment must stay bare:\n%s", res.Src)
	}
}

func TestContainsKeyOnOptionalMap(t *testing.T) {
	src := strings.Join([]string{
		"fn has(m: Option<HashMap<String, i64>>, k: &str) -> bool {",
		"    m.contains_key(k)",
		"}",
	}, "\n")
	res := run(t, src)
	if !strings.Contains(res.Src, "m.as_ref().map_or(false, |m| m.contains_key(k))") {
		t.Errorf("optional map lookup not lowered:\n%s", res.Src)
	}
}

func TestGuardedPushUnwraps(t *testing.T) {
	src := strings.Join([]string{
		"fn collect(v: Option<i64>) -> Vec<i64> {",
		"    let mut out = Vec::new();",
		"    if v.is_some() {",
		"        out.push(v);",
		"    }",
		"    out",
		"}",
	}, "\n")
	res := run(t, src)
	if !strings.Contains(res.Src, "out.push(v.clone().unwrap());") {
		t.Errorf("guarded push not unwrapped:\n%s", res.Src)
	}
}

func TestSkipDisablesPass(t *testing.T) {
	src := strings.Join([]string{
		"fn check(b: i64) -> bool {",
		"    b.is_none()",
		"}",
	}, "\n")
	res := run(t, src, "is_none_non_option")
	if fired(res, "is_none_non_option") {
		t.Error("skipped pass fired")
	}
	if !strings.Contains(res.Src, "b.is_none()") {
		t.Errorf("skipped pass still rewrote:\n%s", res.Src)
	}
}

func TestUnbalancedBracesSkipStructuralPasses(t *testing.T) {
	src := strings.Join([]string{
		"fn f() -> Result<i64, Box<dyn std::error::Error>> {",
		"    return 1;",
	}, "\n")
	res := run(t, src)
	if fired(res, "bare_return") {
		t.Error("structural pass ran on unbalanced source")
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.FixPreconditionSkip {
			found = true
		}
	}
	if !found {
		t.Error("missing precondition skip diagnostic")
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	src := strings.Join([]string{
		"pub struct Cache {",
		"    pub entry: Option<String>,",
		"}",
		"fn parse_num(s: &str) -> Result<i64, Box<dyn std::error::Error>> {",
		"    Ok(s.trim().parse::<i64>()?)",
		"}",
		"fn outer(s: &str, v: Option<i64>, b: i64) -> Result<i64, Box<dyn std::error::Error>> {",
		"    let mut out = Vec::new();",
		"    if v.is_some() {",
		"        out.push(v);",
		"    }",
		"    if b.is_none() {",
		"        return 0;",
		"    }",
		"    let n = (out.pop()) as u32;",
		"    return Ok(parse_num(s));",
		"}",
	}, "\n")
	first := run(t, src)
	second := run(t, first.Src)
	if first.Src != second.Src {
		t.Errorf("second run changed output:\nfirst:\n%s\nsecond:\n%s", first.Src, second.Src)
	}
	if len(second.Fired) != 0 {
		t.Errorf("second run fired passes: %v", second.Fired)
	}
}
