package types

import "testing"

func TestEqualStructural(t *testing.T) {
	a := Dict(Str, List(Int))
	b := Dict(Str, List(Int))
	if !Equal(a, b) {
		t.Error("structurally equal dicts compared unequal")
	}
	if Equal(a, Dict(Str, List(Float))) {
		t.Error("different value types compared equal")
	}
}

func TestOptionalCollapses(t *testing.T) {
	o := Optional(Optional(Int))
	if o.Kind != KindOptional || o.Elem().Kind != KindInt {
		t.Errorf("nested Optional not collapsed: %s", o)
	}
}

func TestJoinNumericLattice(t *testing.T) {
	if got := Join(Int, Float); !Equal(got, Float) {
		t.Errorf("Join(int, float) = %s", got)
	}
	if got := Join(Bool, Int); !Equal(got, Int) {
		t.Errorf("Join(bool, int) = %s", got)
	}
	if got := Join(None, Str); !Equal(got, Optional(Str)) {
		t.Errorf("Join(None, str) = %s", got)
	}
	if got := Join(Str, Int); got != nil {
		t.Errorf("Join(str, int) should have no bound, got %s", got)
	}
	if got := Join(Optional(Int), Int); !Equal(got, Optional(Int)) {
		t.Errorf("Join(Optional[int], int) = %s", got)
	}
}

func TestIsResolved(t *testing.T) {
	if List(Var(1)).IsResolved() {
		t.Error("list of unification var reported resolved")
	}
	if List(Unknown).IsResolved() {
		t.Error("list of Unknown reported resolved")
	}
	if !Dict(Str, Tuple(Int, Float)).IsResolved() {
		t.Error("concrete dict reported unresolved")
	}
}

func TestIsCopy(t *testing.T) {
	if !Tuple(Int, Bool).IsCopy() {
		t.Error("tuple of scalars should be Copy")
	}
	if Tuple(Int, Str).IsCopy() {
		t.Error("tuple containing str should not be Copy")
	}
	if Str.IsCopy() {
		t.Error("str should not be Copy")
	}
}

func TestStringRendering(t *testing.T) {
	cases := []struct {
		ty   *Type
		want string
	}{
		{List(Int), "list[int]"},
		{Dict(Str, Float), "dict[str, float]"},
		{Optional(Str), "Optional[str]"},
		{Union(Int, Str), "Union[int, str]"},
		{Callable([]*Type{Int, Int}, Bool), "Callable[[int, int], bool]"},
		{Custom("Point"), "Point"},
	}
	for _, tc := range cases {
		if got := tc.ty.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
