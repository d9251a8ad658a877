package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimePostgres(t *testing.T) {
	got, ok := ParseTime("2024-10-10 10:10:10.123456+00")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Hour() != 10 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestMonthsBetween(t *testing.T) {
	a := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		b    time.Time
		want int
	}{
		{time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), 3},
		{time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2023, 4, 14, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, c := range cases {
		if got := MonthsBetween(a, c.b); got != c.want {
			t.Fatalf("MonthsBetween(%v) = %d, want %d", c.b, got, c.want)
		}
	}
}
