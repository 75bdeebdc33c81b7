package scheduling

import (
	"regexp"
	"testing"
	"time"
)

// Wednesday.
var wednesday = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{1,2}:\d{2} (AM|PM)$`)
)

func TestExtractIsTotal(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	transcripts := []string{
		"",
		"hello",
		"I want to book an appointment",
		"next monday at 3pm",
		"see you in the morning",
		"99/99 at 99 o'clock",
		"the 32nd of december",
		"!!! ###",
	}
	for _, transcript := range transcripts {
		result := extractor.Extract(transcript)
		if !datePattern.MatchString(result.Date) {
			t.Errorf("Extract(%q) date = %q, want YYYY-MM-DD", transcript, result.Date)
		}
		if !timePattern.MatchString(result.Time) {
			t.Errorf("Extract(%q) time = %q, want H:MM AM|PM", transcript, result.Time)
		}
	}
}

func TestExtractNextWeekday(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("let's meet next Monday at 3pm")
	if result.Date != "2026-03-16" {
		t.Errorf("date = %q, want 2026-03-16", result.Date)
	}
	if result.Time != "3:00 PM" {
		t.Errorf("time = %q, want 3:00 PM", result.Time)
	}
	if !result.HasExplicitDate || !result.HasExplicitTime {
		t.Errorf("expected both fields explicit, got date=%v time=%v", result.HasExplicitDate, result.HasExplicitTime)
	}
}

func TestExtractNextWeekdayRollsWeekWhenToday(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("next wednesday works")
	if result.Date != "2026-03-18" {
		t.Errorf("date = %q, want 2026-03-18", result.Date)
	}
}

func TestExtractThisWeekday(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("how about this friday")
	if result.Date != "2026-03-13" {
		t.Errorf("date = %q, want 2026-03-13", result.Date)
	}

	// Monday already passed this week, so it rolls forward.
	result = extractor.Extract("can we do this monday")
	if result.Date != "2026-03-16" {
		t.Errorf("date = %q, want 2026-03-16", result.Date)
	}
}

func TestExtractBareWeekdayActsLikeNext(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("tuesday would be great")
	if result.Date != "2026-03-17" {
		t.Errorf("date = %q, want 2026-03-17", result.Date)
	}
}

func TestExtractRelativeDays(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("tomorrow at noon")
	if result.Date != "2026-03-12" {
		t.Errorf("tomorrow date = %q, want 2026-03-12", result.Date)
	}
	if result.Time != "2:00 PM" {
		t.Errorf("noon time = %q, want 2:00 PM", result.Time)
	}

	result = extractor.Extract("today in the evening")
	if result.Date != "2026-03-11" {
		t.Errorf("today date = %q, want 2026-03-11", result.Date)
	}
	if result.Time != "5:00 PM" {
		t.Errorf("evening time = %q, want 5:00 PM", result.Time)
	}
}

func TestExtractCalendarDates(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	cases := []struct {
		transcript string
		wantDate   string
	}{
		{"book me for 2026-04-01 please", "2026-04-01"},
		{"how about march 20th", "2026-03-20"},
		{"the 5th of april works", "2026-04-05"},
		{"put me down for 4/15", "2026-04-15"},
		{"put me down for 4/15/27", "2027-04-15"},
		{"put me down for 4/15/2027", "2027-04-15"},
	}
	for _, tc := range cases {
		result := extractor.Extract(tc.transcript)
		if result.Date != tc.wantDate {
			t.Errorf("Extract(%q) date = %q, want %q", tc.transcript, result.Date, tc.wantDate)
		}
	}
}

func TestExtractVagueWeekPhrases(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("sometime next week please")
	if result.Date != "2026-03-16" {
		t.Errorf("next week date = %q, want Monday 2026-03-16", result.Date)
	}
	if !result.HasExplicitDate {
		t.Error("vague week phrase should count as explicit")
	}

	result = extractor.Extract("call me back in a few days")
	if result.Date != "2026-03-13" {
		t.Errorf("few days date = %q, want 2026-03-13", result.Date)
	}
}

func TestExtractAmPmInference(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	cases := []struct {
		transcript string
		wantTime   string
	}{
		{"see you at 3", "3:00 PM"},
		{"see you at 6", "6:00 PM"},
		{"see you at 7", "7:00 AM"},
		{"see you at 11", "11:00 AM"},
		{"see you at 12", "12:00 PM"},
		{"see you at 3:30", "3:30 PM"},
		{"see you at 9 AM", "9:00 AM"},
		{"see you at 9 pm", "9:00 PM"},
	}
	for _, tc := range cases {
		result := extractor.Extract(tc.transcript)
		if result.Time != tc.wantTime {
			t.Errorf("Extract(%q) time = %q, want %q", tc.transcript, result.Time, tc.wantTime)
		}
	}
}

func TestExtractTimeWithoutDateUsesNextBusinessDay(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("see you in the morning")
	if result.Time != "10:00 AM" {
		t.Errorf("time = %q, want 10:00 AM", result.Time)
	}
	if result.Date != "2026-03-12" {
		t.Errorf("date = %q, want next business day 2026-03-12", result.Date)
	}
	if result.HasExplicitDate {
		t.Error("defaulted date should not be explicit")
	}
}

func TestExtractEmptyTranscriptDefaults(t *testing.T) {
	extractor := NewExtractor(nil, fixedNow(wednesday))

	result := extractor.Extract("")
	if result.Date != "2026-03-12" {
		t.Errorf("date = %q, want 2026-03-12", result.Date)
	}
	if result.Time != "10:00 AM" {
		t.Errorf("time = %q, want 10:00 AM", result.Time)
	}
	if result.HasExplicitDate || result.HasExplicitTime {
		t.Error("empty transcript must not report explicit fields")
	}
}

func TestExtractEmptyTranscriptRollsWeekend(t *testing.T) {
	// Friday: tomorrow is Saturday, so the default rolls to Monday.
	friday := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	extractor := NewExtractor(nil, fixedNow(friday))

	result := extractor.Extract("")
	if result.Date != "2026-03-16" {
		t.Errorf("date = %q, want Monday 2026-03-16", result.Date)
	}

	saturday := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	result = NewExtractor(nil, fixedNow(saturday)).Extract("")
	if result.Date != "2026-03-16" {
		t.Errorf("saturday date = %q, want Monday 2026-03-16", result.Date)
	}
}

func TestStandardizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3 : 30 pm", "3:30 PM"},
		{"3 PM", "3:00 PM"},
		{"10:00   AM", "10:00 AM"},
	}
	for _, tc := range cases {
		if got := standardizeTime(tc.in); got != tc.want {
			t.Errorf("standardizeTime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
