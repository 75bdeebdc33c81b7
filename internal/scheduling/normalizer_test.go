package scheduling

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeValidInput(t *testing.T) {
	normalizer := NewNormalizer(nil, fixedNow(wednesday))

	start, end := normalizer.Normalize("2026-03-12", "3:00 PM")
	if start.Hour() != 15 || start.Minute() != 0 {
		t.Errorf("start = %s, want 15:00", start.Format("15:04"))
	}
	if !end.Equal(start.Add(30 * time.Minute)) {
		t.Errorf("end = %s, want start+30m", end)
	}
	if got := FormatTimestamp(start); got != "2026-03-12T15:00:00-06:00" {
		t.Errorf("formatted start = %q", got)
	}
}

func TestNormalizeMorningTime(t *testing.T) {
	normalizer := NewNormalizer(nil, fixedNow(wednesday))

	start, _ := normalizer.Normalize("2026-03-16", "10:00 AM")
	if got := FormatTimestamp(start); got != "2026-03-16T10:00:00-06:00" {
		t.Errorf("formatted start = %q", got)
	}
}

func TestNormalizeEmergencyFallback(t *testing.T) {
	normalizer := NewNormalizer(nil, fixedNow(wednesday))

	// Unparseable input collapses to next business day at 10:00.
	start, end := normalizer.Normalize("not-a-date", "whenever")
	if got := FormatTimestamp(start); got != "2026-03-12T10:00:00-06:00" {
		t.Errorf("emergency start = %q", got)
	}
	if got := FormatTimestamp(end); got != "2026-03-12T10:30:00-06:00" {
		t.Errorf("emergency end = %q", got)
	}
}

func TestNormalizeEmergencyFallbackRollsWeekend(t *testing.T) {
	friday := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	normalizer := NewNormalizer(nil, fixedNow(friday))

	start, _ := normalizer.Normalize("garbage", "input")
	if got := FormatTimestamp(start); got != "2026-03-16T10:00:00-06:00" {
		t.Errorf("emergency start = %q, want Monday", got)
	}
}

func TestFormatTimestampCarriesFixedOffset(t *testing.T) {
	// July is DST in America/Chicago, but the wire format keeps -06:00.
	july := time.Date(2026, 7, 15, 9, 0, 0, 0, BusinessZone())
	if got := FormatTimestamp(july); !strings.HasSuffix(got, "-06:00") {
		t.Errorf("timestamp %q does not carry the fixed -06:00 offset", got)
	}
}

func TestNormalizeNeverReturnsZero(t *testing.T) {
	normalizer := NewNormalizer(nil, fixedNow(wednesday))

	inputs := [][2]string{
		{"", ""},
		{"2026-13-45", "25:99 XM"},
		{"2026-03-12", ""},
	}
	for _, in := range inputs {
		start, end := normalizer.Normalize(in[0], in[1])
		if start.IsZero() || end.IsZero() {
			t.Errorf("Normalize(%q, %q) returned zero time", in[0], in[1])
		}
		if !end.After(start) {
			t.Errorf("Normalize(%q, %q) end not after start", in[0], in[1])
		}
	}
}
