package aggregate

import (
	"errors"
	"fmt"
	"math"
)

// Range is a half-open interval [Min, Max). The last range of a
// set is unbounded above (Max is +Inf).
type Range struct {
	Label string
	Min   float64
	Max   float64
}

// Ranges is an ascending, gapless set of intervals starting at 0.
type Ranges []Range

// PriceRanges buckets product prices.
var PriceRanges = Ranges{
	{Label: "$0-$25", Min: 0, Max: 25},
	{Label: "$25-$50", Min: 25, Max: 50},
	{Label: "$50-$100", Min: 50, Max: 100},
	{Label: "$100-$200", Min: 100, Max: 200},
	{Label: "$200+", Min: 200, Max: math.Inf(1)},
}

// OrderValueRanges buckets order totals.
var OrderValueRanges = Ranges{
	{Label: "$0-$100", Min: 0, Max: 100},
	{Label: "$100-$500", Min: 100, Max: 500},
	{Label: "$500-$1000", Min: 500, Max: 1000},
	{Label: "$1000+", Min: 1000, Max: math.Inf(1)},
}

// Validate checks that rs starts at 0, has no gaps or overlaps, and
// ends unbounded, so every value >= 0 lands in exactly one range.
func (rs Ranges) Validate() error {
	if len(rs) == 0 {
		return errors.New("no ranges")
	}
	if rs[0].Min != 0 {
		return fmt.Errorf("first range %q starts at %v, want 0",
			rs[0].Label, rs[0].Min)
	}
	for i := range rs {
		if rs[i].Max <= rs[i].Min {
			return fmt.Errorf("range %q is empty", rs[i].Label)
		}
		if i > 0 && rs[i].Min != rs[i-1].Max {
			return fmt.Errorf("range %q starts at %v, previous ends at %v",
				rs[i].Label, rs[i].Min, rs[i-1].Max)
		}
	}
	if last := rs[len(rs)-1]; !math.IsInf(last.Max, 1) {
		return fmt.Errorf("last range %q is bounded", last.Label)
	}
	return nil
}

// Classify returns the index of the range containing v, scanning
// in ascending order and stopping at the first match. A value on a
// boundary belongs to the range it opens. Negative and NaN values
// are treated as 0.
func (rs Ranges) Classify(v float64) int {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	for i, r := range rs {
		if v >= r.Min && v < r.Max {
			return i
		}
	}
	return len(rs) - 1
}

// RangeBucket is the count of records falling in one Range. Max is
// nil for the unbounded last bucket.
type RangeBucket struct {
	Label string   `json:"label"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max,omitempty"`
	Count int      `json:"count"`
}

// Bucketize classifies every record's value into rs. All buckets
// are present, in range order, even when their count is zero.
func Bucketize[T any](
	records []T, rs Ranges, value func(T) float64,
) []RangeBucket {
	buckets := make([]RangeBucket, len(rs))
	for i, r := range rs {
		buckets[i] = RangeBucket{Label: r.Label, Min: r.Min}
		if !math.IsInf(r.Max, 1) {
			hi := r.Max
			buckets[i].Max = &hi
		}
	}
	if len(rs) == 0 {
		return buckets
	}
	for _, rec := range records {
		buckets[rs.Classify(value(rec))].Count++
	}
	return buckets
}

// RangeCounts converts range buckets to plain label/count buckets.
func RangeCounts(buckets []RangeBucket) []Bucket {
	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		out[i] = Bucket{Name: b.Label, Value: float64(b.Count)}
	}
	return out
}
