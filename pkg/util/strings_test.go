package util

import "testing"

func TestContainsArabic(t *testing.T) {
	if !ContainsArabic("سعر الذهب") {
		t.Fatalf("expected arabic")
	}
	if ContainsArabic("gold price 24k") {
		t.Fatalf("unexpected arabic")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("ذهب عيار", 3); got != "ذهب…" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("abc", 5); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  a \n\t b  "); got != "a b" {
		t.Fatalf("got %q", got)
	}
}
