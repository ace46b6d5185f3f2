// Package bars implements the per-ticker data model: job descriptors, the canonical bar
// frame, session filtering, MAD outlier cleaning, and the per-day pipeline that ties them
// together.
package bars

import (
	"fmt"
	"time"

	"github.com/yussieik/polyextract/internal/apperrors"
)

// Resolution enumerates the supported bar intervals. Only Minute is currently accepted by
// Job validation; the others are registered in the template table (see resolution.go) for
// extensibility per the design notes, without widening accepted input.
type Resolution string

const (
	Minute Resolution = "minute"
	Day    Resolution = "day"
	Week   Resolution = "week"
	Month  Resolution = "month"
)

// Job is an immutable descriptor for one ticker's extraction over a date range. Construct
// with NewJob; never mutate a Job after construction — clone per worker instead.
type Job struct {
	Ticker     string
	StartDate  time.Time
	EndDate    time.Time
	Resolution Resolution
	Multiplier int
}

// NewJob validates and constructs a Job. StartDate and EndDate must be UTC midnight dates
// (time-of-day is ignored by callers but normalized here for safe comparison).
func NewJob(ticker string, start, end time.Time, resolution Resolution, multiplier int) (Job, error) {
	if ticker == "" {
		return Job{}, &apperrors.DomainError{Reason: "ticker must not be empty"}
	}
	start = normalizeDate(start)
	end = normalizeDate(end)
	if end.Before(start) {
		return Job{}, &apperrors.DomainError{Reason: fmt.Sprintf("end_date %s before start_date %s", end.Format("2006-01-02"), start.Format("2006-01-02"))}
	}
	if resolution != Minute {
		return Job{}, &apperrors.DomainError{Reason: fmt.Sprintf("unsupported resolution %q", resolution)}
	}
	if multiplier <= 0 {
		return Job{}, &apperrors.DomainError{Reason: "multiplier must be positive"}
	}
	return Job{
		Ticker:     ticker,
		StartDate:  start,
		EndDate:    end,
		Resolution: resolution,
		Multiplier: multiplier,
	}, nil
}

// Days returns every calendar date in [StartDate, EndDate], inclusive, formatted YYYY-MM-DD.
func (j Job) Days() []string {
	days := make([]string, 0, int(j.EndDate.Sub(j.StartDate).Hours()/24)+1)
	for d := j.StartDate; !d.After(j.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
