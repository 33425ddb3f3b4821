package diag

import (
	"testing"

	"depyler/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	sp := source.Span{}
	if !b.Add(NewError(BridgeUnsupportedConstruct, sp, "one")) {
		t.Fatal("first add rejected")
	}
	if !b.Add(NewWarning(InferUnresolvedType, sp, "two")) {
		t.Fatal("second add rejected")
	}
	if b.Add(NewInfo(FixPassFired, sp, "three")) {
		t.Error("expected third add to be rejected")
	}
	if b.Len() != 2 {
		t.Errorf("expected 2 items, got %d", b.Len())
	}
}

func TestBagSeverityQueries(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{}
	b.Add(NewInfo(FixPassFired, sp, "info"))
	if b.HasErrors() || b.HasWarnings() {
		t.Error("info-only bag should have no errors or warnings")
	}
	b.Add(NewWarning(InferDynamicFallback, sp, "warn"))
	if b.HasErrors() {
		t.Error("no errors expected")
	}
	if !b.HasWarnings() {
		t.Error("expected warnings")
	}
	b.Add(NewError(GenConstraintViolation, sp, "err"))
	if !b.HasErrors() {
		t.Error("expected errors")
	}
	if b.CountBySeverity(SevError) != 1 {
		t.Errorf("expected 1 error, got %d", b.CountBySeverity(SevError))
	}
}

func TestBagSortStable(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(GenConstraintViolation, source.Span{File: 0, Start: 50}, "late"))
	b.Add(NewError(BridgeUnsupportedConstruct, source.Span{File: 0, Start: 10}, "early"))
	b.SortStable()
	if b.Items()[0].Message != "early" {
		t.Errorf("expected sorted order, got %q first", b.Items()[0].Message)
	}
}

func TestCodeString(t *testing.T) {
	if got := BridgeUnsupportedConstruct.String(); got != "DPY1001" {
		t.Errorf("expected DPY1001, got %q", got)
	}
}
