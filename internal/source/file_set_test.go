package source

import "testing"

func TestAddVirtualAndResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.py", []byte("def f():\n    return 1\n"))

	f := fs.Get(id)
	if f.Path != "test.py" {
		t.Errorf("expected path test.py, got %q", f.Path)
	}
	if f.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag")
	}

	start, end := fs.Resolve(Span{File: id, Start: 9, End: 20})
	if start.Line != 2 || start.Col != 1 {
		t.Errorf("expected start 2:1, got %v", start)
	}
	if end.Line != 2 {
		t.Errorf("expected end line 2, got %v", end)
	}
}

func TestSpanFromLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.py", []byte("x = 1\ny = 2\n"))

	sp := fs.SpanFromLineCol(id,
		LineCol{Line: 2, Col: 0},
		LineCol{Line: 2, Col: 5},
	)
	f := fs.Get(id)
	if got := string(f.Content[sp.Start:sp.End]); got != "y = 2" {
		t.Errorf("expected span to cover %q, got %q", "y = 2", got)
	}
}

func TestLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.py", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	cases := []struct {
		line uint32
		want string
	}{
		{1, "first"},
		{2, "second"},
		{3, "third"},
		{4, ""},
		{0, ""},
	}
	for _, tc := range cases {
		if got := f.Line(tc.line); got != tc.want {
			t.Errorf("Line(%d) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestNormalizeCRLF(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc"))
	if !changed {
		t.Error("expected change")
	}
	if string(out) != "a\nb\rc" {
		t.Errorf("got %q", out)
	}

	out, changed = normalizeCRLF([]byte("plain"))
	if changed {
		t.Error("expected no change")
	}
	if string(out) != "plain" {
		t.Errorf("got %q", out)
	}
}

func TestRemoveBOM(t *testing.T) {
	out, had := removeBOM([]byte{0xEF, 0xBB, 0xBF, 'x'})
	if !had || string(out) != "x" {
		t.Errorf("BOM not stripped: %q %v", out, had)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 5, End: 10}
	b := Span{File: 1, Start: 2, End: 7}
	c := a.Cover(b)
	if c.Start != 2 || c.End != 10 {
		t.Errorf("expected 2-10, got %v", c)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Errorf("cross-file cover should be identity, got %v", got)
	}
}
