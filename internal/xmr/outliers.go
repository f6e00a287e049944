package xmr

import (
	"sort"

	"github.com/spcwise/xmr/internal/series"
	"github.com/spcwise/xmr/pkg/config"
)

// FilteredResult holds both the naive limits over the full series and
// the limits recomputed with detected outliers excluded. It proposes
// values for the lock state machine to adopt; it never mutates lock
// state itself.
type FilteredResult struct {
	// Naive limits over every point
	Naive Limits

	// Filtered limits with OutlierIndices excluded
	Filtered Limits

	// OutlierIndices are indices into the normalized series, ascending
	OutlierIndices []int
}

// ComputeFiltered iteratively excludes points falling strictly outside
// the current natural process limits and recomputes the limits over the
// surviving subsequence, until the excluded set stabilizes or the
// iteration cap is reached. The cap prevents oscillation on
// pathological inputs.
func ComputeFiltered(s series.Series, p config.Params) (FilteredResult, bool) {
	p = p.OrDefaults()
	if len(s) < p.MinDataPoints {
		return FilteredResult{}, false
	}

	values := s.Values()
	naive := computeLimits(values, p)
	current := naive
	excluded := make(map[int]bool)

	for iter := 0; iter < p.OutlierMaxIterations; iter++ {
		grew := false
		for i, v := range values {
			if excluded[i] {
				continue
			}
			if v > current.UNPL || v < current.LNPL {
				excluded[i] = true
				grew = true
			}
		}
		if !grew {
			break
		}

		remaining := make([]float64, 0, len(values)-len(excluded))
		for i, v := range values {
			if !excluded[i] {
				remaining = append(remaining, v)
			}
		}
		// Too few survivors to derive a moving range; keep the last
		// stable limits.
		if len(remaining) < 2 {
			break
		}
		current = computeLimits(remaining, p)
	}

	outliers := make([]int, 0, len(excluded))
	for i := range excluded {
		outliers = append(outliers, i)
	}
	sort.Ints(outliers)

	return FilteredResult{
		Naive:          naive,
		Filtered:       current,
		OutlierIndices: outliers,
	}, true
}

// ShouldAutoLock decides whether the spread introduced by the detected
// outliers is large enough to present the outlier-excluded limits as
// the default. The ratio threshold is a tunable; see
// config.Params.AutoLockRatio.
func ShouldAutoLock(fr FilteredResult, p config.Params) bool {
	p = p.OrDefaults()
	if len(fr.OutlierIndices) == 0 {
		return false
	}
	if fr.Filtered.AvgMovement <= 0 {
		return fr.Naive.AvgMovement > 0
	}
	return fr.Naive.AvgMovement >= p.AutoLockRatio*fr.Filtered.AvgMovement
}
