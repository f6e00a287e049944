// Package series normalizes raw timestamped business metrics into the
// ordered, deduplicated form consumed by the XMR calculators.
package series

import "time"

// RawPoint is a single ingested measurement before normalization. The
// shape matches the data-point objects accepted by the ingestion API:
// a timestamp string, a finite value, and an optional 0-1 confidence.
type RawPoint struct {
	Timestamp  string   `json:"timestamp"`
	Value      float64  `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Point is a normalized measurement. Immutable once produced.
type Point struct {
	Time       time.Time
	Value      float64
	Confidence *float64
}

// Series is an ordered sequence of points, strictly increasing by time
// and unique per timestamp.
type Series []Point

// Values returns the value column of the series
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}
	return vals
}

// WithValues returns a copy of the series with the value column
// replaced. Used by transforms that rescale values but keep timestamps.
func (s Series) WithValues(vals []float64) Series {
	out := make(Series, len(s))
	copy(out, s)
	for i := range out {
		out[i].Value = vals[i]
	}
	return out
}
