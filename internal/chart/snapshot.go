// Package chart assembles the chart-ready output of the XMR engine:
// per-point derived fields, scalar limits, and optional trend and
// seasonality overlays, all plain serializable data.
package chart

import (
	"time"

	"github.com/spcwise/xmr/internal/seasonal"
	"github.com/spcwise/xmr/internal/series"
	"github.com/spcwise/xmr/internal/xmr"
	"github.com/spcwise/xmr/pkg/config"
)

// Options selects the transform and parameters for one build.
type Options struct {
	Params    config.Params
	Transform xmr.TransformKind

	// Grouping selects the seasonal factor mode when Transform is
	// TransformDeseasonalized
	Grouping seasonal.Grouping

	// AutoLock takes the one-shot auto-lock decision during the build
	// when the session is still floating
	AutoLock bool
}

// PointView is one chart-ready point: the value, its moving range, and
// the five violation flags with the display-priority rule resolved.
type PointView struct {
	Timestamp   time.Time `json:"timestamp"`
	Value       float64   `json:"value"`
	MovingRange *float64  `json:"moving_range,omitempty"`

	OutsideLimits            bool `json:"outside_limits"`
	TwoOfThreeBeyondTwoSigma bool `json:"two_of_three_beyond_two_sigma"`
	FourNearLimit            bool `json:"four_near_limit"`
	RunningPoints            bool `json:"running_points"`
	FifteenWithinOneSigma    bool `json:"fifteen_within_one_sigma"`

	PrimaryRule string `json:"primary_rule,omitempty"`

	// Excluded marks points omitted from the active (locked) limit
	// computation; they carry no violation flags and are ghosted by
	// the display layer.
	Excluded bool `json:"excluded,omitempty"`
}

// Snapshot is the complete chart-ready output for one series and one
// set of build options. It carries no behavior and is safe to
// serialize.
type Snapshot struct {
	SessionID        string `json:"session_id"`
	InsufficientData bool   `json:"insufficient_data"`
	Transform        string `json:"transform"`
	LockState        string `json:"lock_state"`

	Points          []PointView         `json:"points,omitempty"`
	Limits          *xmr.Limits         `json:"limits,omitempty"`
	ExcludedIndices []int               `json:"excluded_indices,omitempty"`
	Trend           *xmr.Trend          `json:"trend,omitempty"`
	Seasonal        *seasonal.FactorSet `json:"seasonal,omitempty"`
}

// Build normalizes raw points, applies the requested transform, runs
// the limit and violation calculations against whichever limits are
// active for the session, and emits the chart-ready snapshot. A nil
// session gets a fresh one. The same input always produces the same
// snapshot.
func Build(raw []series.RawPoint, opts Options, sess *xmr.Session) Snapshot {
	p := opts.Params.OrDefaults()
	if sess == nil {
		sess = xmr.NewSession()
	}
	sess.SetTransform(opts.Transform)

	working := series.Normalize(raw)

	snap := Snapshot{
		SessionID: sess.ID(),
		Transform: sess.Transform().String(),
	}

	// Deseasonalization rewrites the working series before any limit
	// calculation. An undetectable period makes it a no-op.
	var factors *seasonal.FactorSet
	if opts.Transform == xmr.TransformDeseasonalized {
		if period, ok := seasonal.DetectPeriod(working); ok {
			if fs, ok := seasonal.Factors(working, period, opts.Grouping); ok {
				working = seasonal.Apply(working, fs)
				factors = &fs
			}
		}
	}

	base, ok := xmr.Compute(working, p)
	if !ok {
		snap.InsufficientData = true
		snap.LockState = sess.State().String()
		return snap
	}

	values := working.Values()
	var bands xmr.Bands

	if opts.Transform == xmr.TransformTrended {
		if trend, ok := xmr.FitTrend(working, base.Limits.AvgMovement, p); ok {
			snap.Trend = &trend
			bands = trend.Limits
			// The range chart still draws the scalar limits
			lim := base.Limits
			snap.Limits = &lim
		}
	}

	if bands == nil {
		if opts.AutoLock && sess.State() == xmr.Floating {
			if fr, ok := xmr.ComputeFiltered(working, p); ok {
				sess.MaybeAutoLock(fr, p)
			}
		}
		active := sess.ActiveLimits(base.Limits)
		bands = active
		snap.Limits = &active
	}

	violations := xmr.Detect(values, bands)

	snap.LockState = sess.State().String()
	snap.ExcludedIndices = sess.ExcludedIndices()
	snap.Seasonal = factors

	excluded := make(map[int]bool, len(snap.ExcludedIndices))
	for _, i := range snap.ExcludedIndices {
		excluded[i] = true
	}

	snap.Points = make([]PointView, len(base.Points))
	for i, cp := range base.Points {
		pv := PointView{
			Timestamp:   cp.Time,
			Value:       cp.Value,
			MovingRange: cp.MovingRange,
		}
		// Points excluded from the locked computation are ghosted,
		// never flagged.
		if excluded[i] {
			pv.Excluded = true
			snap.Points[i] = pv
			continue
		}
		pv.OutsideLimits = violations.OutsideLimits[i]
		pv.TwoOfThreeBeyondTwoSigma = violations.TwoOfThreeBeyondTwoSigma[i]
		pv.FourNearLimit = violations.FourNearLimit[i]
		pv.RunningPoints = violations.RunningPoints[i]
		pv.FifteenWithinOneSigma = violations.FifteenWithinOneSigma[i]
		if rule := violations.Primary(i); rule != xmr.RuleNone {
			pv.PrimaryRule = rule.String()
		}
		snap.Points[i] = pv
	}
	return snap
}
