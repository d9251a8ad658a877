package currency

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{1234.5, "USD", "$1,234.50"},
		{-1234567.891, "EUR", "-€1,234,567.89"},
		{48.5, "EGP", "48.50 ج.م"},
		{1000, "sar", "1,000.00 ر.س"},
		{12.3, "XYZ", "12.30 XYZ"},
		{999.999, "", "1,000.00"},
	}
	for _, tc := range cases {
		if got := Format(tc.amount, tc.code); got != tc.want {
			t.Errorf("Format(%v, %q) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}

func TestSymbolFallsBackToCode(t *testing.T) {
	if Symbol("KWD") != "د.ك" {
		t.Fatalf("KWD glyph")
	}
	if Symbol("ZZZ") != "ZZZ" {
		t.Fatalf("unknown code should render as itself")
	}
}
