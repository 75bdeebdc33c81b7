package scheduling

import (
	"time"

	"go.uber.org/zap"
)

// AppointmentWindowMinutes is the fixed booking window length.
const AppointmentWindowMinutes = 30

// TimeZoneLabel is the zone name carried on outbound booking payloads.
const TimeZoneLabel = "America/Chicago"

// timestampLayout renders timestamps with the zone's numeric offset.
const timestampLayout = "2006-01-02T15:04:05-07:00"

// businessZone is a fixed UTC-06:00 offset. DST is deliberately ignored; the
// downstream calendar integration expects a constant -06:00 regardless of
// season.
var businessZone = time.FixedZone(TimeZoneLabel, -6*60*60)

// Normalizer combines an extracted date and time into a concrete start/end
// pair. It never fails: unparseable input collapses to an emergency window on
// the next business day.
type Normalizer struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewNormalizer constructs a normalizer. A nil now falls back to time.Now.
func NewNormalizer(logger *zap.Logger, now func() time.Time) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{logger: logger, now: now}
}

// Normalize turns ("2026-03-12", "3:00 PM") into a 30-minute start/end pair in
// the fixed business zone.
func (n *Normalizer) Normalize(date, clock string) (time.Time, time.Time) {
	start, err := time.ParseInLocation("2006-01-02 3:04 PM", date+" "+clock, businessZone)
	if err != nil {
		n.logger.Error("datetime normalization failed, using emergency window",
			zap.String("date", date),
			zap.String("time", clock),
			zap.Error(err))
		start = n.emergencyStart()
	}
	return start, start.Add(AppointmentWindowMinutes * time.Minute)
}

// emergencyStart is the next business day at 10:00 in the business zone.
func (n *Normalizer) emergencyStart() time.Time {
	day := NextBusinessDay(n.now().In(businessZone))
	return time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, businessZone)
}

// FormatTimestamp renders a timestamp in the wire format used by the booking
// payload, carrying the fixed -06:00 offset.
func FormatTimestamp(t time.Time) string {
	return t.In(businessZone).Format(timestampLayout)
}

// BusinessZone exposes the fixed offset zone for callers constructing times.
func BusinessZone() *time.Location {
	return businessZone
}
