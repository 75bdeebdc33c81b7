package scheduling

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Extraction is the result of pulling a (date, time) pair out of a raw
// transcript. Both fields are always populated; the flags record whether each
// was found in the text or defaulted.
type Extraction struct {
	Date            string // YYYY-MM-DD
	Time            string // H:MM AM|PM
	HasExplicitDate bool
	HasExplicitTime bool
}

const (
	defaultTime   = "10:00 AM"
	dateLayout    = "2006-01-02"
	morningTime   = "10:00 AM"
	afternoonTime = "2:00 PM"
	eveningTime   = "5:00 PM"
)

var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// dateExpr recognizes, in textual left-to-right order: weekday names (bare,
// "next X", "this X"), tomorrow/today, day-month and month-day forms, ISO
// dates, and slash-delimited dates. Alternation order matters for parity with
// downstream behavior and must not be rearranged.
var dateExpr = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|today|next\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)|this\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)|\d{1,2}(?:st|nd|rd|th)?(?:\s+of)?\s+(?:january|february|march|april|may|june|july|august|september|october|november|december)|(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)

var timeExpr = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(?:o'clock)?\s*(AM|PM)?\b`)

var (
	nextDayExpr   = regexp.MustCompile(`(?i)next\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	thisDayExpr   = regexp.MustCompile(`(?i)this\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	isoDateExpr   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	monthDayExpr  = regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?`)
	dayMonthExpr  = regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?\s+(january|february|march|april|may|june|july|august|september|october|november|december)`)
	nextWeekExpr  = regexp.MustCompile(`(?i)\b(?:next|this)\s+week\b`)
	fewDaysExpr   = regexp.MustCompile(`(?i)\bin\s+(?:a\s+|the\s+)?(?:few|couple|[2-5])\s+days\b`)
	morningExpr   = regexp.MustCompile(`(?i)\b(?:morning|early|am)\b`)
	afternoonExpr = regexp.MustCompile(`(?i)\b(?:afternoon|lunch|noon)\b`)
	eveningExpr   = regexp.MustCompile(`(?i)\b(?:evening|night|late)\b`)
)

// Extractor parses transcripts into a guaranteed (date, time) pair. It is a
// total function: every transcript, including the empty string, yields both
// fields through a fixed-priority chain of patterns and fallbacks.
type Extractor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExtractor constructs an extractor. A nil now falls back to time.Now.
func NewExtractor(logger *zap.Logger, now func() time.Time) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Extractor{logger: logger, now: now}
}

// Extract pulls an appointment date and time out of a transcript. No code
// path returns with a missing field.
func (e *Extractor) Extract(transcript string) Extraction {
	if transcript == "" {
		e.logger.Warn("empty transcript, using booking defaults")
		return Extraction{Date: e.nextBusinessDay(), Time: defaultTime}
	}

	result := Extraction{}

	dateMatch := dateExpr.FindString(transcript)
	timeMatch := timeExpr.FindStringSubmatch(transcript)

	if dateMatch != "" {
		result.HasExplicitDate = true
		result.Date = e.resolveDateExpression(strings.ToLower(dateMatch))
	}

	// Vaguer phrases the combined pattern does not catch.
	if result.Date == "" {
		if nextWeekExpr.MatchString(transcript) {
			result.Date = e.mondayOfNextWeek()
			result.HasExplicitDate = true
		} else if fewDaysExpr.MatchString(transcript) {
			result.Date = e.now().AddDate(0, 0, 2).Format(dateLayout)
			result.HasExplicitDate = true
		}
	}

	if timeMatch != nil {
		result.HasExplicitTime = true
		result.Time = e.resolveTimeExpression(timeMatch)
	}

	// Day-part words when no clock time was spoken.
	if result.Time == "" {
		switch {
		case morningExpr.MatchString(transcript):
			result.Time = morningTime
			result.HasExplicitTime = true
		case afternoonExpr.MatchString(transcript):
			result.Time = afternoonTime
			result.HasExplicitTime = true
		case eveningExpr.MatchString(transcript):
			result.Time = eveningTime
			result.HasExplicitTime = true
		}
	}

	// Cross-fallbacks: a spoken time without a date books the next business
	// day; a spoken date without a time books mid-morning.
	if result.HasExplicitTime && !result.HasExplicitDate {
		result.Date = e.nextBusinessDay()
	}
	if result.HasExplicitDate && !result.HasExplicitTime {
		result.Time = defaultTime
	}

	// Unconditional safety net. Extraction must stay total even when the
	// matched text failed to resolve above.
	if result.Date == "" {
		result.Date = e.nextBusinessDay()
	}
	if result.Time == "" {
		result.Time = defaultTime
	}

	e.logger.Debug("transcript extraction",
		zap.String("date", result.Date),
		zap.String("time", result.Time),
		zap.Bool("explicit_date", result.HasExplicitDate),
		zap.Bool("explicit_time", result.HasExplicitTime))
	return result
}

func (e *Extractor) resolveDateExpression(expr string) string {
	if m := nextDayExpr.FindStringSubmatch(expr); m != nil {
		return e.nextWeekday(m[1])
	}
	if m := thisDayExpr.FindStringSubmatch(expr); m != nil {
		return e.thisWeekday(m[1])
	}
	for _, name := range weekdayNames {
		if expr == name {
			// A bare weekday name behaves like "next X".
			return e.nextWeekday(name)
		}
	}
	switch expr {
	case "tomorrow":
		return e.now().AddDate(0, 0, 1).Format(dateLayout)
	case "today":
		return e.now().Format(dateLayout)
	}
	if isoDateExpr.MatchString(expr) {
		return expr
	}
	if m := monthDayExpr.FindStringSubmatch(expr); m != nil {
		return e.monthDayDate(m[1], m[2])
	}
	if m := dayMonthExpr.FindStringSubmatch(expr); m != nil {
		return e.monthDayDate(m[2], m[1])
	}
	if strings.Contains(expr, "/") {
		return e.slashDate(expr)
	}
	e.logger.Warn("unparseable date expression", zap.String("expr", expr))
	return ""
}

// monthDayDate resolves "march 12" style forms, assuming the current year.
func (e *Extractor) monthDayDate(month, day string) string {
	monthNum := 0
	for i, name := range monthNames {
		if strings.EqualFold(name, month) {
			monthNum = i + 1
			break
		}
	}
	if monthNum == 0 {
		return ""
	}
	dayNum, err := strconv.Atoi(day)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", e.now().Year(), monthNum, dayNum)
}

// slashDate resolves MM/DD and MM/DD/YYYY forms; 2-digit years expand to 20YY.
func (e *Extractor) slashDate(expr string) string {
	parts := strings.Split(expr, "/")
	switch len(parts) {
	case 2:
		month, err1 := strconv.Atoi(parts[0])
		day, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", e.now().Year(), month, day)
	case 3:
		month, err1 := strconv.Atoi(parts[0])
		day, err2 := strconv.Atoi(parts[1])
		year := parts[2]
		if err1 != nil || err2 != nil {
			return ""
		}
		if len(year) == 2 {
			year = "20" + year
		}
		yearNum, err := strconv.Atoi(year)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", yearNum, month, day)
	}
	return ""
}

func (e *Extractor) resolveTimeExpression(match []string) string {
	hour, err := strconv.Atoi(match[1])
	if err != nil {
		return ""
	}
	minutes := match[2]
	if minutes == "" {
		minutes = "00"
	}
	meridiem := strings.ToUpper(match[3])
	if meridiem == "" {
		if hour >= 1 && hour < 12 {
			// Business hours assumption: bare 1-6 means afternoon.
			if hour <= 6 {
				meridiem = "PM"
			} else {
				meridiem = "AM"
			}
		} else if hour < 1 {
			meridiem = "AM"
		} else {
			meridiem = "PM"
		}
	}
	return standardizeTime(fmt.Sprintf("%d:%s %s", hour, minutes, meridiem))
}

var (
	colonSpacing  = regexp.MustCompile(`(\d+)\s*:\s*(\d+)`)
	meridiemSpace = regexp.MustCompile(`(\d+(?::\d+)?)\s+(AM|PM)`)
	bareHour      = regexp.MustCompile(`(\d+)\s*(AM|PM)`)
)

// standardizeTime normalizes a spoken time into "H:MM AM|PM".
func standardizeTime(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = colonSpacing.ReplaceAllString(cleaned, "$1:$2")
	cleaned = meridiemSpace.ReplaceAllString(cleaned, "$1 $2")
	if !strings.Contains(cleaned, ":") && (strings.Contains(cleaned, "AM") || strings.Contains(cleaned, "PM")) {
		cleaned = bareHour.ReplaceAllString(cleaned, "$1:00 $2")
	}
	return cleaned
}

// pythonic weekday: Monday=0 .. Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// nextWeekday returns the next occurrence of the named weekday. If today is
// that weekday, it rolls to next week.
func (e *Extractor) nextWeekday(name string) string {
	target := weekdayNameIndex(name)
	today := e.now()
	daysAhead := (target - weekdayIndex(today)) % 7
	if daysAhead < 0 {
		daysAhead += 7
	}
	if daysAhead == 0 {
		daysAhead = 7
	}
	return today.AddDate(0, 0, daysAhead).Format(dateLayout)
}

// thisWeekday returns this week's occurrence of the named weekday, rolling to
// next week when the day has already passed.
func (e *Extractor) thisWeekday(name string) string {
	target := weekdayNameIndex(name)
	today := e.now()
	current := weekdayIndex(today)
	var daysAhead int
	if target < current {
		daysAhead = 7 - (current - target)
	} else {
		daysAhead = target - current
	}
	return today.AddDate(0, 0, daysAhead).Format(dateLayout)
}

// nextBusinessDay returns tomorrow, rolled past weekends to Monday.
func (e *Extractor) nextBusinessDay() string {
	return NextBusinessDay(e.now()).Format(dateLayout)
}

// NextBusinessDay computes the next Monday-Friday day strictly after from.
func NextBusinessDay(from time.Time) time.Time {
	daysAhead := 1
	next := from.AddDate(0, 0, daysAhead)
	if weekdayIndex(next) >= 5 {
		daysAhead += 7 - weekdayIndex(next)
	}
	return from.AddDate(0, 0, daysAhead)
}

// mondayOfNextWeek returns the Monday of the targeted week, rolling forward a
// full week when today is already Monday.
func (e *Extractor) mondayOfNextWeek() string {
	today := e.now()
	daysAhead := 7 - weekdayIndex(today)
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return today.AddDate(0, 0, daysAhead).Format(dateLayout)
}

func weekdayNameIndex(name string) int {
	for i, candidate := range weekdayNames {
		if strings.EqualFold(candidate, name) {
			return i
		}
	}
	return 0
}
