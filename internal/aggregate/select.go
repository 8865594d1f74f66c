package aggregate

import (
	"cmp"
	"slices"
)

// TopN returns up to n records with the largest metric, largest
// first. The sort is stable so ties keep input order. The input
// slice is not modified.
func TopN[T any](records []T, n int, metric func(T) float64) []T {
	if n <= 0 {
		return []T{}
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(metric(b), metric(a))
	})
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// Filter returns the records for which keep is true, in order.
func Filter[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Group is the members of one key in a nested grouping.
type Group[T any] struct {
	Key     string `json:"key"`
	Members []T    `json:"members"`
}

// GroupBy partitions records by key. Groups come back in key
// discovery order and members keep input order.
func GroupBy[T any](records []T, key func(T) string) []Group[T] {
	index := make(map[string]int)
	groups := make([]Group[T], 0)
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Members = append(groups[i].Members, r)
	}
	return groups
}

// SortGroups returns a copy of groups ordered by key.
func SortGroups[T any](groups []Group[T]) []Group[T] {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b Group[T]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
