package rental

import (
	"fmt"
	"strings"
)

// =============================================================================
// GRANULARITY - Bucketing of day-keyed records for reporting
// =============================================================================

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity accepts the canonical names and their -ly aliases.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return GranularityDay, nil
	case "month", "monthly", "":
		return GranularityMonth, nil
	case "year", "yearly":
		return GranularityYear, nil
	}
	return "", &ValidationError{Field: "granularity", Value: s, Reason: "must be day, month or year"}
}

// BucketKey truncates d to g: "YYYY-MM-DD", "YYYY-MM" or "YYYY".
// Keys of one granularity sort lexicographically in chronological order.
func (g Granularity) BucketKey(d Date) string {
	switch g {
	case GranularityDay:
		return d.String()
	case GranularityYear:
		return fmt.Sprintf("%04d", d.Year())
	default:
		return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
	}
}

// =============================================================================
// PERIOD - Inclusive day range
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, &ValidationError{Field: "to", Value: end.String(), Reason: "must not be before from"}
	}
	return Period{Start: start, End: end}, nil
}

// MonthOf returns the calendar month containing d.
func MonthOf(d Date) Period {
	return Period{Start: d.StartOfMonth(), End: d.EndOfMonth()}
}

func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days lists every day in the period in order.
func (p Period) Days() []Date {
	var days []Date
	for d := p.Start; !d.After(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
