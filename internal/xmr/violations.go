package xmr

import "math"

// Rule identifies one of the five special-cause-variation rules, in
// descending display priority. A hard limit breach outranks the
// pattern-based signals, and acute patterns outrank the too-stable
// signal.
type Rule int

const (
	RuleNone Rule = iota
	RuleOutsideLimits
	RuleTwoOfThreeBeyondTwoSigma
	RuleFourNearLimit
	RuleRunningPoints
	RuleFifteenWithinOneSigma
)

func (r Rule) String() string {
	switch r {
	case RuleOutsideLimits:
		return "outside-limits"
	case RuleTwoOfThreeBeyondTwoSigma:
		return "two-of-three-beyond-two-sigma"
	case RuleFourNearLimit:
		return "four-near-limit"
	case RuleRunningPoints:
		return "running-points"
	case RuleFifteenWithinOneSigma:
		return "fifteen-within-one-sigma"
	default:
		return "none"
	}
}

// Band is the set of control thresholds active at one index.
type Band struct {
	Centre        float64
	UNPL          float64
	LNPL          float64
	UpperQuartile float64
	LowerQuartile float64
}

// Bands yields the active control bands at each index. Scalar limits
// return the same band everywhere; trend limits vary per index.
type Bands interface {
	At(i int) Band
}

// At returns the flat band derived from scalar limits
func (l Limits) At(i int) Band {
	return Band{
		Centre:        l.AvgX,
		UNPL:          l.UNPL,
		LNPL:          l.LNPL,
		UpperQuartile: l.UpperQuartile,
		LowerQuartile: l.LowerQuartile,
	}
}

// Violations holds the five rule index sets. An index may appear in
// more than one set; Primary resolves which rule a display layer should
// show for it.
type Violations struct {
	OutsideLimits            map[int]bool
	TwoOfThreeBeyondTwoSigma map[int]bool
	FourNearLimit            map[int]bool
	RunningPoints            map[int]bool
	FifteenWithinOneSigma    map[int]bool
}

// Primary returns the highest-priority rule firing on index i, or
// RuleNone.
func (v Violations) Primary(i int) Rule {
	switch {
	case v.OutsideLimits[i]:
		return RuleOutsideLimits
	case v.TwoOfThreeBeyondTwoSigma[i]:
		return RuleTwoOfThreeBeyondTwoSigma
	case v.FourNearLimit[i]:
		return RuleFourNearLimit
	case v.RunningPoints[i]:
		return RuleRunningPoints
	case v.FifteenWithinOneSigma[i]:
		return RuleFifteenWithinOneSigma
	default:
		return RuleNone
	}
}

// Any reports whether any rule fires on index i
func (v Violations) Any(i int) bool {
	return v.Primary(i) != RuleNone
}

const (
	runLength          = 8
	lowVariationLength = 15
)

// Detect evaluates the five rules against the active bands. It must be
// re-run whenever the limits or trend status change; results are never
// cached independently of their band input.
func Detect(values []float64, b Bands) Violations {
	v := Violations{
		OutsideLimits:            make(map[int]bool),
		TwoOfThreeBeyondTwoSigma: make(map[int]bool),
		FourNearLimit:            make(map[int]bool),
		RunningPoints:            make(map[int]bool),
		FifteenWithinOneSigma:    make(map[int]bool),
	}
	if len(values) == 0 {
		return v
	}

	detectOutsideLimits(values, b, v.OutsideLimits)
	detectWindowBeyondQuartile(values, b, 3, 2, v.TwoOfThreeBeyondTwoSigma)
	detectWindowBeyondQuartile(values, b, 4, 3, v.FourNearLimit)
	detectRuns(values, b, v.RunningPoints, v.FifteenWithinOneSigma)
	return v
}

// detectOutsideLimits flags values strictly beyond a natural process
// limit.
func detectOutsideLimits(values []float64, b Bands, out map[int]bool) {
	for i, val := range values {
		band := b.At(i)
		if val > band.UNPL || val < band.LNPL {
			out[i] = true
		}
	}
}

// detectWindowBeyondQuartile implements the sliding-window rules: in
// any window of `window` consecutive points, at least `needed` beyond
// the quartile band on the same side. The qualifying points themselves
// are flagged.
func detectWindowBeyondQuartile(values []float64, b Bands, window, needed int, out map[int]bool) {
	if len(values) < window {
		return
	}
	for start := 0; start+window <= len(values); start++ {
		var above, below []int
		for i := start; i < start+window; i++ {
			band := b.At(i)
			if values[i] > band.UpperQuartile {
				above = append(above, i)
			} else if values[i] < band.LowerQuartile {
				below = append(below, i)
			}
		}
		if len(above) >= needed {
			for _, i := range above {
				out[i] = true
			}
		}
		if len(below) >= needed {
			for _, i := range below {
				out[i] = true
			}
		}
	}
}

// sideOf classifies a value against the centre line with a relative
// tolerance, so that points computed to lie on the line (a noise-free
// trend baseline, a locked centre equal to the data) are not pushed to
// one side by floating-point error.
func sideOf(val, centre float64) int {
	tol := 1e-9 * math.Max(1, math.Max(math.Abs(val), math.Abs(centre)))
	switch {
	case val > centre+tol:
		return 1
	case val < centre-tol:
		return -1
	default:
		return 0
	}
}

// detectRuns walks the series once, tracking runs on one side of the
// centre line (running-point rule) and runs inside the quartile band
// (low-variation rule). A point on the centre line sits on neither
// side and counts toward neither run: it is not variation around the
// centre, it is the centre.
func detectRuns(values []float64, b Bands, running, lowVar map[int]bool) {
	sideStart, side := 0, 0
	insideStart := 0

	flushSide := func(end int) {
		if side != 0 && end-sideStart >= runLength {
			for i := sideStart; i < end; i++ {
				running[i] = true
			}
		}
	}
	flushInside := func(start, end int) {
		if end-start >= lowVariationLength {
			for i := start; i < end; i++ {
				lowVar[i] = true
			}
		}
	}

	inside := false
	for i, val := range values {
		band := b.At(i)

		s := sideOf(val, band.Centre)
		if s != side {
			flushSide(i)
			sideStart, side = i, s
		}

		in := val > band.LowerQuartile && val < band.UpperQuartile && s != 0
		if in != inside {
			if !in {
				flushInside(insideStart, i)
			} else {
				insideStart = i
			}
			inside = in
		}
	}
	flushSide(len(values))
	if inside {
		flushInside(insideStart, len(values))
	}
}
