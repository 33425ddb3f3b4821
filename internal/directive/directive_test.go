package directive

import "testing"

func TestParseComment(t *testing.T) {
	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"# depyler: nasa_mode = true", "nasa_mode", "true", true},
		{"# @depyler: error_policy = \"panics\"", "error_policy", "panics", true},
		{"#depyler: verify=full", "verify", "full", true},
		{"# just a comment", "", "", false},
		{"x = 1  # depyler-ish", "", "", false},
		{"# depyler: novalue", "", "", false},
	}
	for _, tc := range cases {
		k, v, ok := ParseComment(tc.line)
		if ok != tc.ok || k != tc.key || v != tc.value {
			t.Errorf("ParseComment(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.line, k, v, ok, tc.key, tc.value, tc.ok)
		}
	}
}

func TestCollectFromSource(t *testing.T) {
	src := `import math

# depyler: nasa_mode = true
# depyler: type.x = "f64"
def scale(x, k):
    return x * k

# regular comment only
def plain(y):
    return y

# depyler: error_policy = fails-with
# depyler: skip_fixups = bare_return, is_none_non_option
class Parser:
    pass
`
	reg := CollectFromSource(src)

	s := reg.Lookup("scale")
	if s == nil {
		t.Fatal("scale directives not found")
	}
	if s.NasaMode == nil || !*s.NasaMode {
		t.Error("nasa_mode not parsed")
	}
	if s.TypeOverrides["x"] != "f64" {
		t.Errorf("type override = %q", s.TypeOverrides["x"])
	}

	if reg.Lookup("plain") != nil {
		t.Error("plain should have no directives")
	}

	p := reg.Lookup("Parser")
	if p == nil {
		t.Fatal("Parser directives not found")
	}
	if p.ErrorPolicy != PolicyFailsWith {
		t.Errorf("error policy = %s", p.ErrorPolicy)
	}

	skips := reg.SkippedFixups()
	if !skips["bare_return"] || !skips["is_none_non_option"] {
		t.Errorf("skip set = %v", skips)
	}
}

func TestCollectAboveStopsAtBlank(t *testing.T) {
	lines := []string{
		"# depyler: nasa_mode = true",
		"",
		"# depyler: verify = basic",
		"def f():",
	}
	s := CollectAbove(lines, 4)
	if s == nil {
		t.Fatal("expected directives")
	}
	if s.Verify != "basic" {
		t.Errorf("verify = %q", s.Verify)
	}
	if s.NasaMode != nil {
		t.Error("directive beyond blank line should not apply")
	}
}

func TestUnknownKeyRecorded(t *testing.T) {
	s := &Set{}
	s.apply("frobnicate", "yes")
	if len(s.Unknown) != 1 || s.Unknown[0] != "frobnicate" {
		t.Errorf("unknown keys = %v", s.Unknown)
	}
}
