package seasonal

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/spcwise/xmr/internal/series"
)

// Grouping selects how phase factors relate phase means to the overall
// mean.
type Grouping int

const (
	// Multiplicative factors are ratios of phase mean to overall mean
	Multiplicative Grouping = iota

	// Additive factors are differences between phase mean and overall
	// mean
	Additive
)

func (g Grouping) String() string {
	if g == Additive {
		return "additive"
	}
	return "multiplicative"
}

// factorEpsilon guards divisions when a phase or overall mean sits at
// or near zero.
const factorEpsilon = 1e-12

// FactorSet holds one factor per phase of the period it was computed
// for, plus the period and grouping needed to apply or remove it.
type FactorSet struct {
	Period   Period    `json:"period"`
	Grouping Grouping  `json:"grouping"`
	Factors  []float64 `json:"factors"`
}

// identity returns the no-op factor for the grouping
func (g Grouping) identity() float64 {
	if g == Additive {
		return 0
	}
	return 1
}

// Factors groups points by phase within the period and computes one
// factor per phase from the ratio (or difference) between the phase
// mean and the overall mean. Phases with no data receive the identity
// factor. ok is false on an empty series, or for multiplicative
// grouping when the overall mean is too close to zero for ratios to be
// meaningful.
func Factors(s series.Series, period Period, grouping Grouping) (FactorSet, bool) {
	if len(s) == 0 {
		return FactorSet{}, false
	}

	overall := stat.Mean(s.Values(), nil)
	if grouping == Multiplicative && math.Abs(overall) < factorEpsilon {
		return FactorSet{}, false
	}

	sums := make([]float64, period.phaseCount())
	counts := make([]int, period.phaseCount())
	for _, p := range s {
		phase := period.phaseIndex(p.Time)
		sums[phase] += p.Value
		counts[phase]++
	}

	factors := make([]float64, period.phaseCount())
	for phase := range factors {
		if counts[phase] == 0 {
			factors[phase] = grouping.identity()
			continue
		}
		phaseMean := sums[phase] / float64(counts[phase])
		if grouping == Additive {
			factors[phase] = phaseMean - overall
			continue
		}
		factor := phaseMean / overall
		// A near-zero ratio would blow up on application; treat the
		// phase as unseasonal instead.
		if math.Abs(factor) < factorEpsilon {
			factor = 1
		}
		factors[phase] = factor
	}

	return FactorSet{
		Period:   period,
		Grouping: grouping,
		Factors:  factors,
	}, true
}

// Apply deseasonalizes the series, dividing (or subtracting) each
// point's value by its phase's factor. The result feeds back into the
// base XMR calculation.
func Apply(s series.Series, f FactorSet) series.Series {
	vals := s.Values()
	for i, p := range s {
		factor := f.Factors[f.Period.phaseIndex(p.Time)]
		if f.Grouping == Additive {
			vals[i] = p.Value - factor
		} else {
			vals[i] = p.Value / factor
		}
	}
	return s.WithValues(vals)
}

// Remove is the exact inverse of Apply: it restores the seasonal effect
// so that Apply(Remove(x)) equals x within floating-point tolerance.
func Remove(s series.Series, f FactorSet) series.Series {
	vals := s.Values()
	for i, p := range s {
		factor := f.Factors[f.Period.phaseIndex(p.Time)]
		if f.Grouping == Additive {
			vals[i] = p.Value + factor
		} else {
			vals[i] = p.Value * factor
		}
	}
	return s.WithValues(vals)
}
