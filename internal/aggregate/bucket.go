// Package aggregate reduces record collections into chart-ready
// summaries. Every function is pure: inputs are never mutated and
// repeated calls on the same input return equal results.
package aggregate

import (
	"cmp"
	"slices"
)

// Bucket is one named aggregate: a count or a sum keyed by a
// categorical dimension.
type Bucket struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// CountBy groups records by key and counts members per group.
// Buckets come back in the order their key was first seen.
func CountBy[T any](records []T, key func(T) string) []Bucket {
	return SumBy(records, key, func(T) float64 { return 1 })
}

// SumBy groups records by key and sums value per group, in
// discovery order.
func SumBy[T any](
	records []T,
	key func(T) string,
	value func(T) float64,
) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Name: k})
		}
		buckets[i].Value += value(r)
	}
	return buckets
}

// CountOf counts records per key, emitting one bucket for every
// key in keys (zero when absent) followed by any unlisted keys in
// discovery order. Use it for fixed enumerations such as statuses.
func CountOf[T any](
	records []T, keys []string, key func(T) string,
) []Bucket {
	return SumOf(records, keys, key, func(T) float64 { return 1 })
}

// SumOf is SumBy with the leading keys fixed, as in CountOf.
func SumOf[T any](
	records []T,
	keys []string,
	key func(T) string,
	value func(T) float64,
) []Bucket {
	buckets := make([]Bucket, len(keys))
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		buckets[i] = Bucket{Name: k}
		index[k] = i
	}
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Name: k})
		}
		buckets[i].Value += value(r)
	}
	return buckets
}

// SortDesc returns a copy of buckets sorted by value, largest
// first. Equal values keep their input order.
func SortDesc(buckets []Bucket) []Bucket {
	out := slices.Clone(buckets)
	slices.SortStableFunc(out, func(a, b Bucket) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return out
}

// SortByName returns a copy of buckets in ascending name order.
func SortByName(buckets []Bucket) []Bucket {
	out := slices.Clone(buckets)
	slices.SortStableFunc(out, func(a, b Bucket) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Total sums bucket values. For a count aggregation it equals the
// input length.
func Total(buckets []Bucket) float64 {
	var sum float64
	for _, b := range buckets {
		sum += b.Value
	}
	return sum
}

// Lookup returns the value of the named bucket.
func Lookup(buckets []Bucket, name string) (float64, bool) {
	for _, b := range buckets {
		if b.Name == name {
			return b.Value, true
		}
	}
	return 0, false
}

// Largest returns the name of the highest-valued bucket, or
// fallback when there are no buckets. Ties go to the earlier
// bucket.
func Largest(buckets []Bucket, fallback string) string {
	if len(buckets) == 0 {
		return fallback
	}
	return SortDesc(buckets)[0].Name
}
