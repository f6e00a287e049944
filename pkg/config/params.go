// Package config defines the tunable parameters for the XMR engine and
// the providers that load them from YAML files or SQLite databases.
package config

import "fmt"

// Params holds every tunable constant used by the engine. Callers pass a
// Params value into the engine entry points; there is no global state.
type Params struct {
	// MinDataPoints is the minimum number of normalized points required
	// before any chartable output is produced.
	MinDataPoints int `json:"min_data_points"`

	// NPLScaling converts the average moving range into natural process
	// limits. The classical Individual-X constant is 2.66 (3/d2 for
	// subgroups of 2).
	NPLScaling float64 `json:"npl_scaling"`

	// URLScaling converts the average moving range into the range-chart
	// upper limit. The classical D4 constant for n=2 is 3.27.
	URLScaling float64 `json:"url_scaling"`

	// QuartileFraction places the quartile bands as a fraction of the
	// distance from the centre line to the natural process limits.
	QuartileFraction float64 `json:"quartile_fraction"`

	// OutlierMaxIterations caps the exclude-and-recompute loop in the
	// outlier-aware limit calculation.
	OutlierMaxIterations int `json:"outlier_max_iterations"`

	// AutoLockRatio is the minimum ratio of unfiltered to
	// outlier-excluded average moving range at which the excluded-outlier
	// limits are proposed as the default (auto-locked) limits.
	AutoLockRatio float64 `json:"auto_lock_ratio"`
}

// DefaultParams returns the standard engine parameters.
func DefaultParams() Params {
	return Params{
		MinDataPoints:        5,
		NPLScaling:           2.66,
		URLScaling:           3.27,
		QuartileFraction:     2.0 / 3.0,
		OutlierMaxIterations: 5,
		AutoLockRatio:        1.30,
	}
}

// OrDefaults returns a copy of p with any zero-valued field replaced by
// its default, so that a zero Params behaves like DefaultParams().
func (p Params) OrDefaults() Params {
	d := DefaultParams()
	if p.MinDataPoints <= 0 {
		p.MinDataPoints = d.MinDataPoints
	}
	if p.NPLScaling <= 0 {
		p.NPLScaling = d.NPLScaling
	}
	if p.URLScaling <= 0 {
		p.URLScaling = d.URLScaling
	}
	if p.QuartileFraction <= 0 {
		p.QuartileFraction = d.QuartileFraction
	}
	if p.OutlierMaxIterations <= 0 {
		p.OutlierMaxIterations = d.OutlierMaxIterations
	}
	if p.AutoLockRatio <= 0 {
		p.AutoLockRatio = d.AutoLockRatio
	}
	return p
}

// Validate rejects parameter combinations that would produce nonsense
// limits. It is called by the providers after loading.
func (p Params) Validate() error {
	if p.MinDataPoints < 2 {
		return fmt.Errorf("min_data_points must be at least 2, got %d", p.MinDataPoints)
	}
	if p.NPLScaling <= 0 {
		return fmt.Errorf("npl_scaling must be positive, got %g", p.NPLScaling)
	}
	if p.URLScaling <= 0 {
		return fmt.Errorf("url_scaling must be positive, got %g", p.URLScaling)
	}
	if p.QuartileFraction <= 0 || p.QuartileFraction >= 1 {
		return fmt.Errorf("quartile_fraction must be in (0, 1), got %g", p.QuartileFraction)
	}
	if p.OutlierMaxIterations < 1 {
		return fmt.Errorf("outlier_max_iterations must be at least 1, got %d", p.OutlierMaxIterations)
	}
	if p.AutoLockRatio < 1 {
		return fmt.Errorf("auto_lock_ratio must be at least 1, got %g", p.AutoLockRatio)
	}
	return nil
}
