package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"depyler/internal/diag"
	"depyler/internal/source"
)

func TestPrettyHeading(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("mod.py", []byte("x = eval(\"1\")\n"))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.BridgeUnsupportedConstruct,
		source.Span{File: id, Start: 4, End: 13},
		"eval is outside the supported subset"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, Opts{Context: true})

	out := buf.String()
	if !strings.Contains(out, "mod.py:1:5: ERROR DPY1001:") {
		t.Errorf("missing heading, got:\n%s", out)
	}
	if !strings.Contains(out, "x = eval") {
		t.Errorf("missing context line, got:\n%s", out)
	}
	if !strings.Contains(out, "^~~~") {
		t.Errorf("missing caret underline, got:\n%s", out)
	}
}

func TestSummaryCounts(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.GenConstraintViolation, source.Span{}, "boom"))
	bag.Add(diag.NewWarning(diag.InferDynamicFallback, source.Span{}, "meh"))

	var buf bytes.Buffer
	Summary(&buf, bag, Opts{})
	if got := buf.String(); !strings.Contains(got, "1 error(s), 1 warning(s)") {
		t.Errorf("unexpected summary: %q", got)
	}
}

func TestSummarySilentWhenClean(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, diag.NewBag(10), Opts{})
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
