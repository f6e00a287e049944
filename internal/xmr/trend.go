package xmr

import (
	"gonum.org/v1/gonum/stat"

	"github.com/spcwise/xmr/internal/series"
	"github.com/spcwise/xmr/pkg/config"
)

// TrendLimits are per-index control bands derived from a regression
// line plus constant offsets. All five sequences are parallel to the
// centre line and have one value per input index.
type TrendLimits struct {
	CentreLine    []float64 `json:"centre_line"`
	UNPL          []float64 `json:"unpl"`
	LNPL          []float64 `json:"lnpl"`
	UpperQuartile []float64 `json:"upper_quartile"`
	LowerQuartile []float64 `json:"lower_quartile"`
}

// At returns the band at index i, implementing Bands
func (t TrendLimits) At(i int) Band {
	return Band{
		Centre:        t.CentreLine[i],
		UNPL:          t.UNPL[i],
		LNPL:          t.LNPL[i],
		UpperQuartile: t.UpperQuartile[i],
		LowerQuartile: t.LowerQuartile[i],
	}
}

// Trend is a fitted linear baseline for a series.
type Trend struct {
	Gradient  float64 `json:"gradient"`
	Intercept float64 `json:"intercept"`
	Limits    TrendLimits
}

// FitTrend fits an ordinary least-squares regression of value against
// point index (not wall-clock time) and derives trend-relative bands
// using the same offsets as the static case, applied parallel to the
// regression line. avgMovement comes from the base calculation over the
// same series. ok is false below two points.
func FitTrend(s series.Series, avgMovement float64, p config.Params) (Trend, bool) {
	if len(s) < 2 {
		return Trend{}, false
	}
	p = p.OrDefaults()

	xs := make([]float64, len(s))
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := s.Values()

	intercept, gradient := stat.LinearRegression(xs, ys, nil, false)

	spread := p.NPLScaling * avgMovement
	quartile := p.QuartileFraction * spread

	t := Trend{
		Gradient:  gradient,
		Intercept: intercept,
		Limits: TrendLimits{
			CentreLine:    make([]float64, len(s)),
			UNPL:          make([]float64, len(s)),
			LNPL:          make([]float64, len(s)),
			UpperQuartile: make([]float64, len(s)),
			LowerQuartile: make([]float64, len(s)),
		},
	}
	for i := range s {
		centre := gradient*float64(i) + intercept
		t.Limits.CentreLine[i] = centre
		t.Limits.UNPL[i] = centre + spread
		t.Limits.LNPL[i] = centre - spread
		t.Limits.UpperQuartile[i] = centre + quartile
		t.Limits.LowerQuartile[i] = centre - quartile
	}
	return t, true
}
