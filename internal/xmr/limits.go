// Package xmr computes Individual-X and Moving Range control limits,
// special-cause-variation rule violations, trend baselines, and the
// limit-lock session state for a normalized business time series.
//
// Every computation is a pure function over immutable inputs. Derived
// structures are recomputed from scratch whenever the series or an
// active transform changes; nothing is updated incrementally.
package xmr

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/spcwise/xmr/internal/series"
	"github.com/spcwise/xmr/pkg/config"
)

// Limits holds the derived scalars of one XMR computation over a single
// series snapshot.
type Limits struct {
	// AvgX is the centre line of the individuals chart
	AvgX float64 `json:"avg_x"`

	// AvgMovement is the mean of the moving ranges
	AvgMovement float64 `json:"avg_movement"`

	// UNPL and LNPL are the natural process limits,
	// AvgX +/- NPLScaling*AvgMovement
	UNPL float64 `json:"unpl"`
	LNPL float64 `json:"lnpl"`

	// UpperQuartile and LowerQuartile sit at QuartileFraction of the
	// distance from AvgX to the natural process limits. They serve as
	// the near-limit and beyond-two-sigma thresholds in rule detection.
	UpperQuartile float64 `json:"upper_quartile"`
	LowerQuartile float64 `json:"lower_quartile"`

	// URL is the range-chart upper limit, URLScaling*AvgMovement
	URL float64 `json:"url"`
}

// ChartPoint is a normalized point with its derived moving range.
// MovingRange is nil for the first point of a series.
type ChartPoint struct {
	series.Point
	MovingRange *float64
}

// Result pairs the per-point derived values with the scalar limits.
type Result struct {
	Points []ChartPoint
	Limits Limits
}

// Compute derives moving ranges and natural process limits for a
// normalized series. ok is false when the series is below the minimum
// chartable point count; callers must branch on this before rendering.
func Compute(s series.Series, p config.Params) (Result, bool) {
	p = p.OrDefaults()
	if len(s) < p.MinDataPoints {
		return Result{}, false
	}

	values := s.Values()
	points := make([]ChartPoint, len(s))
	for i, pt := range s {
		points[i] = ChartPoint{Point: pt}
		if i > 0 {
			mr := math.Abs(values[i] - values[i-1])
			points[i].MovingRange = &mr
		}
	}

	return Result{
		Points: points,
		Limits: computeLimits(values, p),
	}, true
}

// movingRanges returns the n-1 absolute consecutive differences
func movingRanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	ranges := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		ranges[i-1] = math.Abs(values[i] - values[i-1])
	}
	return ranges
}

// computeLimits derives the limit scalars over a value sequence of at
// least two points.
func computeLimits(values []float64, p config.Params) Limits {
	avgX := stat.Mean(values, nil)
	avgMovement := stat.Mean(movingRanges(values), nil)

	spread := p.NPLScaling * avgMovement
	return Limits{
		AvgX:          avgX,
		AvgMovement:   avgMovement,
		UNPL:          avgX + spread,
		LNPL:          avgX - spread,
		UpperQuartile: avgX + p.QuartileFraction*spread,
		LowerQuartile: avgX - p.QuartileFraction*spread,
		URL:           p.URLScaling * avgMovement,
	}
}
