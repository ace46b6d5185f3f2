package bars

import (
	"time"

	"github.com/yussieik/polyextract/internal/apperrors"
)

// MarketTimezone enumerates the exchanges the session filter knows about. Adding a
// market means adding one case here and one entry in marketSessions; no other
// code changes, per the design notes.
type MarketTimezone int

const (
	Eastern MarketTimezone = iota
)

type sessionHours struct {
	open, close time.Time // time-of-day only; Year/Month/Day are ignored
	zone        string    // IANA zone name
}

var marketSessions = map[MarketTimezone]sessionHours{
	Eastern: {
		open:  time.Date(0, 1, 1, 9, 30, 0, 0, time.UTC),
		close: time.Date(0, 1, 1, 16, 0, 0, 0, time.UTC),
		zone:  "America/New_York",
	},
}

// SessionWindow computes the inclusive [openMs, closeMs] epoch-millisecond window for a
// given calendar date (YYYY-MM-DD) in the given market's local exchange timezone, DST
// aware. It returns a DomainError if the local wall-clock time of open or close is
// ambiguous (falls in a DST fall-back repeated hour) for that date — the distilled spec
// requires rejecting ambiguity rather than silently picking an offset, even though in
// practice US equity market hours never overlap the transition point.
func SessionWindow(market MarketTimezone, date string) (openMs, closeMs int64, err error) {
	hours, ok := marketSessions[market]
	if !ok {
		return 0, 0, &apperrors.DomainError{Reason: "unknown market timezone"}
	}

	loc, err := time.LoadLocation(hours.zone)
	if err != nil {
		return 0, 0, &apperrors.DomainError{Reason: "cannot load timezone: " + err.Error()}
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, 0, &apperrors.DomainError{Reason: "invalid date: " + err.Error()}
	}

	open, err := localDateTime(loc, day, hours.open)
	if err != nil {
		return 0, 0, err
	}
	closeT, err := localDateTime(loc, day, hours.close)
	if err != nil {
		return 0, 0, err
	}

	return open.UnixMilli(), closeT.UnixMilli(), nil
}

// localDateTime builds a wall-clock instant on day at clock's time-of-day in loc, then
// rejects it if the wall clock is non-existent (a spring-forward gap, where time.Date
// silently normalizes the hour forward) or ambiguous (a fall-back overlap, where two
// distinct instants 1 hour apart share the same wall clock). Go's time package has no
// direct "is this ambiguous" query, so non-existence is detected by checking the
// constructed time's wall-clock fields round-trip, and ambiguity by probing one hour
// (the size of the DST shift) on either side of the candidate instant for another
// instant with an identical wall clock but a different absolute time.
func localDateTime(loc *time.Location, day, clock time.Time) (time.Time, error) {
	y, m, d := day.Date()
	h, min, sec := clock.Clock()

	wall := time.Date(y, m, d, h, min, sec, 0, loc)
	if wall.Hour() != h || wall.Minute() != min || wall.Second() != sec || wall.Day() != d {
		return time.Time{}, &apperrors.DomainError{Reason: "non-existent local time at DST transition"}
	}

	for _, probe := range []time.Time{wall.Add(-time.Hour), wall.Add(time.Hour)} {
		if probe.Year() == y && probe.Month() == m && probe.Day() == d &&
			probe.Hour() == h && probe.Minute() == min && probe.Second() == sec &&
			!probe.Equal(wall) {
			return time.Time{}, &apperrors.DomainError{Reason: "ambiguous local time at DST transition"}
		}
	}

	return wall, nil
}

// FilterSession keeps only the rows whose Time column falls within the session's
// inclusive [openMs, closeMs] window for the given market and trading day.
func FilterSession(rows []Row, market MarketTimezone, day string) ([]Row, error) {
	openMs, closeMs, err := SessionWindow(market, day)
	if err != nil {
		return nil, err
	}

	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Time >= openMs && r.Time <= closeMs {
			kept = append(kept, r)
		}
	}
	return kept, nil
}
