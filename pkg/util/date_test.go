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

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-03-07",
		"2024/03/07",
		"03/07/2024",
		"Mar 7, 2024",
		"07 Mar 2024",
		"2024-03-07 15:00:00",
		"2024-03-07T09:30:00Z",
		"  2024-03-07 ",
	} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", s)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", s, got, want)
		}
	}
	if _, ok := ParseDate("yesterday"); ok {
		t.Fatalf("expected failure for free text")
	}
}

func TestUnixDate(t *testing.T) {
	ts := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	want := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	got, ok := UnixDate(float64(ts.Unix()))
	if !ok || !got.Equal(want) {
		t.Fatalf("seconds: got %v ok=%v", got, ok)
	}
	got, ok = UnixDate(float64(ts.UnixMilli()))
	if !ok || !got.Equal(want) {
		t.Fatalf("millis: got %v ok=%v", got, ok)
	}
	if _, ok := UnixDate(-1); ok {
		t.Fatalf("expected failure for negative timestamp")
	}
}
