package series

import (
	"math"
	"sort"
	"time"
)

// Normalize validates, deduplicates, and sorts raw points into a
// Series. Points with unparsable timestamps or non-finite values are
// dropped rather than reported; upstream ingestion legitimately
// contains sparse and noisy rows.
//
// Duplicate timestamps resolve deterministically regardless of how many
// passes the same input takes: when both duplicates carry a confidence
// the higher one wins (the later occurrence on a tie), when only the
// later occurrence carries a confidence it wins, and otherwise the
// later occurrence wins.
func Normalize(raw []RawPoint) Series {
	byTime := make(map[int64]Point, len(raw))
	order := make([]int64, 0, len(raw))

	for _, rp := range raw {
		if math.IsNaN(rp.Value) || math.IsInf(rp.Value, 0) {
			continue
		}
		t, err := ParseTimestamp(rp.Timestamp)
		if err != nil {
			continue
		}

		key := t.UnixNano()
		next := Point{Time: t, Value: rp.Value, Confidence: rp.Confidence}

		prev, seen := byTime[key]
		if !seen {
			byTime[key] = next
			order = append(order, key)
			continue
		}
		byTime[key] = resolveDuplicate(prev, next)
	}

	out := make(Series, 0, len(order))
	for _, key := range order {
		out = append(out, byTime[key])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// resolveDuplicate picks the survivor between an earlier-seen and a
// later-seen point sharing a timestamp.
func resolveDuplicate(prev, next Point) Point {
	switch {
	case prev.Confidence != nil && next.Confidence != nil:
		if *next.Confidence >= *prev.Confidence {
			return next
		}
		return prev
	case next.Confidence != nil:
		return next
	default:
		// Neither confident, or only the earlier occurrence is:
		// latest wins.
		return next
	}
}

// Raw converts a normalized series back to the raw representation.
// Normalizing the result yields an identical series.
func (s Series) Raw() []RawPoint {
	raw := make([]RawPoint, len(s))
	for i, p := range s {
		raw[i] = RawPoint{
			Timestamp:  p.Time.Format(time.RFC3339),
			Value:      p.Value,
			Confidence: p.Confidence,
		}
	}
	return raw
}
