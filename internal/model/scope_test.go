package model

import (
	"testing"

	"github.com/gofrs/uuid/v5"
)

func TestParseScopeNames_DropsInvalid(t *testing.T) {
	valid := uuid.Must(uuid.NewV4())

	s := ParseScopeNames([]string{valid.String(), "not-a-uuid", ""})
	if len(s) != 1 {
		t.Fatalf("want 1 scope, got %d", len(s))
	}
	if !s.Contains(valid) {
		t.Fatalf("valid id missing from set")
	}
}

func TestParseScopeNames_Deduplicates(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	s := ParseScopeNames([]string{id.String(), id.String()})
	if len(s) != 1 {
		t.Fatalf("want 1 scope after dedup, got %d", len(s))
	}
}

func TestScopeSet_StringsSortedAndStable(t *testing.T) {
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	s := NewScopeSet(a, b)
	first := s.Strings()
	second := s.Strings()
	if len(first) != 2 {
		t.Fatalf("want 2 entries, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("unstable output: %v vs %v", first, second)
		}
	}
	if first[0] > first[1] {
		t.Fatalf("not sorted: %v", first)
	}
}

func TestScopeSet_RoundTrip(t *testing.T) {
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	s := NewScopeSet(a, b)
	back := ParseScopeNames(s.Strings())
	if len(back) != 2 || !back.Contains(a) || !back.Contains(b) {
		t.Fatalf("round trip lost entries: %v", back.Strings())
	}
}
