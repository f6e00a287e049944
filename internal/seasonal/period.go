// Package seasonal detects periodicity in a normalized series, derives
// per-phase seasonal factors, and applies or removes them. Like the
// rest of the engine it is purely functional: transforms return new
// series and never mutate their inputs.
package seasonal

import (
	"sort"
	"time"

	"github.com/spcwise/xmr/internal/series"
)

// Period is the length of one seasonal cycle.
type Period int

const (
	PeriodWeek Period = iota
	PeriodMonth
	PeriodQuarter
	PeriodYear
)

func (p Period) String() string {
	switch p {
	case PeriodWeek:
		return "week"
	case PeriodMonth:
		return "month"
	case PeriodQuarter:
		return "quarter"
	default:
		return "year"
	}
}

// phaseCount returns the number of phases within one period
func (p Period) phaseCount() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 31
	case PeriodQuarter:
		return 3
	default:
		return 12
	}
}

// phaseIndex maps a timestamp to its phase within the period
func (p Period) phaseIndex(t time.Time) int {
	switch p {
	case PeriodWeek:
		return int(t.Weekday())
	case PeriodMonth:
		return t.Day() - 1
	case PeriodQuarter:
		return (int(t.Month()) - 1) % 3
	default:
		return int(t.Month()) - 1
	}
}

// duration returns the nominal length of one period
func (p Period) duration() time.Duration {
	switch p {
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 31 * 24 * time.Hour
	case PeriodQuarter:
		return 92 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

// DetectPeriod guesses the most plausible natural period from the
// median timestamp spacing. Sub-daily cadences have no defensible
// calendar period, so detection is inapplicable and seasonality must
// not be auto-applied; the same holds for cadences coarser than
// quarterly. A period is only reported when the series spans at least
// two full cycles.
func DetectPeriod(s series.Series) (Period, bool) {
	if len(s) < 3 {
		return 0, false
	}

	spacing := medianSpacing(s)
	var period Period
	switch {
	case spacing < 20*time.Hour:
		// Sub-daily: the only defensible answer would be "day"
		return 0, false
	case spacing <= 48*time.Hour:
		period = PeriodWeek
	case spacing <= 100*24*time.Hour:
		// Weekly, monthly, and quarterly cadences all phase within a
		// calendar year.
		period = PeriodYear
	default:
		return 0, false
	}

	span := s[len(s)-1].Time.Sub(s[0].Time)
	if span < 2*period.duration() {
		return 0, false
	}
	return period, true
}

// medianSpacing returns the median gap between consecutive timestamps
func medianSpacing(s series.Series) time.Duration {
	gaps := make([]time.Duration, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		gaps = append(gaps, s[i].Time.Sub(s[i-1].Time))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}
