package seasonal

import (
	"math"
	"testing"
	"time"

	"github.com/spcwise/xmr/internal/series"
)

// dailySeries builds n consecutive daily points from a value function
func dailySeries(n int, value func(t time.Time, i int) float64) series.Series {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := make(series.Series, n)
	for i := range s {
		ts := base.AddDate(0, 0, i)
		s[i] = series.Point{Time: ts, Value: value(ts, i)}
	}
	return s
}

// monthlySeries builds n consecutive monthly points
func monthlySeries(n int, value func(t time.Time, i int) float64) series.Series {
	base := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := make(series.Series, n)
	for i := range s {
		ts := base.AddDate(0, i, 0)
		s[i] = series.Point{Time: ts, Value: value(ts, i)}
	}
	return s
}

func TestDetectPeriod(t *testing.T) {
	flat := func(time.Time, int) float64 { return 10 }

	tests := []struct {
		name     string
		series   series.Series
		expected Period
		ok       bool
	}{
		{
			name:     "daily cadence over three weeks",
			series:   dailySeries(21, flat),
			expected: PeriodWeek,
			ok:       true,
		},
		{
			name:   "daily cadence below two cycles",
			series: dailySeries(10, flat),
			ok:     false,
		},
		{
			name:     "monthly cadence over three years",
			series:   monthlySeries(37, flat),
			expected: PeriodYear,
			ok:       true,
		},
		{
			name:   "monthly cadence below two cycles",
			series: monthlySeries(12, flat),
			ok:     false,
		},
		{
			name: "hourly cadence is inapplicable",
			series: func() series.Series {
				base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
				s := make(series.Series, 100)
				for i := range s {
					s[i] = series.Point{Time: base.Add(time.Duration(i) * time.Hour), Value: 10}
				}
				return s
			}(),
			ok: false,
		},
		{
			name: "yearly cadence is inapplicable",
			series: func() series.Series {
				base := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
				s := make(series.Series, 10)
				for i := range s {
					s[i] = series.Point{Time: base.AddDate(i, 0, 0), Value: 10}
				}
				return s
			}(),
			ok: false,
		},
		{
			name:   "too short to judge",
			series: dailySeries(2, flat),
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, ok := DetectPeriod(tt.series)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (period %s)", tt.ok, ok, period)
			}
			if ok && period != tt.expected {
				t.Errorf("expected period %s, got %s", tt.expected, period)
			}
		})
	}
}

func TestMultiplicativeFactors(t *testing.T) {
	// Four weeks of daily data: Mondays run at double the base level
	s := dailySeries(28, func(ts time.Time, _ int) float64 {
		if ts.Weekday() == time.Monday {
			return 20
		}
		return 10
	})

	fs, ok := Factors(s, PeriodWeek, Multiplicative)
	if !ok {
		t.Fatal("expected factors")
	}
	if len(fs.Factors) != 7 {
		t.Fatalf("expected 7 weekday factors, got %d", len(fs.Factors))
	}

	// overall mean = (6*10 + 20)/7
	overall := 80.0 / 7.0
	for wd, factor := range fs.Factors {
		expected := 10.0 / overall
		if time.Weekday(wd) == time.Monday {
			expected = 20.0 / overall
		}
		if math.Abs(factor-expected) > 1e-9 {
			t.Errorf("weekday %d: expected factor %.6f, got %.6f", wd, expected, factor)
		}
	}

	// Applying the factors flattens the Monday effect
	flattened := Apply(s, fs)
	first := flattened[0].Value
	for i, p := range flattened {
		if math.Abs(p.Value-first) > 1e-9 {
			t.Errorf("point %d not flattened: %.6f vs %.6f", i, p.Value, first)
		}
	}
}

func TestAdditiveFactors(t *testing.T) {
	s := dailySeries(28, func(ts time.Time, _ int) float64 {
		if ts.Weekday() == time.Saturday {
			return 4
		}
		return 11
	})

	fs, ok := Factors(s, PeriodWeek, Additive)
	if !ok {
		t.Fatal("expected factors")
	}

	overall := (6.0*11.0 + 4.0) / 7.0
	if got := fs.Factors[int(time.Saturday)]; math.Abs(got-(4.0-overall)) > 1e-9 {
		t.Errorf("saturday factor: expected %.6f, got %.6f", 4.0-overall, got)
	}
	if got := fs.Factors[int(time.Monday)]; math.Abs(got-(11.0-overall)) > 1e-9 {
		t.Errorf("monday factor: expected %.6f, got %.6f", 11.0-overall, got)
	}
}

func TestFactorsEdgeCases(t *testing.T) {
	if _, ok := Factors(nil, PeriodWeek, Multiplicative); ok {
		t.Errorf("empty series should produce no factors")
	}

	// Multiplicative factors around a zero mean are meaningless
	zero := dailySeries(14, func(_ time.Time, i int) float64 {
		if i%2 == 0 {
			return 5
		}
		return -5
	})
	if _, ok := Factors(zero, PeriodWeek, Multiplicative); ok {
		t.Errorf("zero-mean series should reject multiplicative grouping")
	}
	if _, ok := Factors(zero, PeriodWeek, Additive); !ok {
		t.Errorf("zero-mean series is fine additively")
	}

	// Phases with no data carry the identity factor
	sparse := dailySeries(2, func(time.Time, int) float64 { return 10 })
	fs, ok := Factors(sparse, PeriodWeek, Multiplicative)
	if !ok {
		t.Fatal("expected factors")
	}
	seen := map[int]bool{
		int(sparse[0].Time.Weekday()): true,
		int(sparse[1].Time.Weekday()): true,
	}
	for wd, factor := range fs.Factors {
		if !seen[wd] && factor != 1 {
			t.Errorf("empty phase %d should have identity factor, got %.4f", wd, factor)
		}
	}
}

func TestSeasonalRoundTrip(t *testing.T) {
	s := dailySeries(56, func(ts time.Time, i int) float64 {
		v := 100 + 5*math.Sin(float64(i)/3)
		if ts.Weekday() == time.Sunday {
			v *= 1.4
		}
		return v
	})

	for _, grouping := range []Grouping{Multiplicative, Additive} {
		t.Run(grouping.String(), func(t *testing.T) {
			fs, ok := Factors(s, PeriodWeek, grouping)
			if !ok {
				t.Fatal("expected factors")
			}

			roundTripped := Apply(Remove(s, fs), fs)
			for i := range s {
				rel := math.Abs(roundTripped[i].Value-s[i].Value) / math.Abs(s[i].Value)
				if rel > 1e-9 {
					t.Errorf("point %d: round trip drifted by %.2e", i, rel)
				}
			}

			// The original series is untouched
			if s[0].Value != 100+5*math.Sin(0) {
				t.Errorf("transform mutated its input")
			}
		})
	}
}
