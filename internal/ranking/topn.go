// Package ranking turns the derived tables of a pipeline into the ordered,
// display-ready views of the dashboard. Every "top N per year" view goes
// through TopNPerGroup.
package ranking

import (
	"cmp"
	"slices"
)

// TopNPerGroup orders rows by group ascending and metric descending and keeps
// the first n rows of every group. The sort is stable: rows tied on both keys
// keep their input order. rows is not modified.
func TopNPerGroup[T any, K cmp.Ordered](rows []T, group func(T) K, metric func(T) float64, n int) []T {
	if n <= 0 || len(rows) == 0 {
		return nil
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if c := cmp.Compare(group(a), group(b)); c != 0 {
			return c
		}
		return cmp.Compare(metric(b), metric(a))
	})

	out := make([]T, 0, min(len(sorted), n*4))
	taken := 0
	for i, row := range sorted {
		if i > 0 && group(sorted[i-1]) != group(row) {
			taken = 0
		}
		if taken < n {
			out = append(out, row)
			taken++
		}
	}
	return out
}

// TopN is TopNPerGroup over a single group.
func TopN[T any](rows []T, metric func(T) float64, n int) []T {
	return TopNPerGroup(rows, func(T) int { return 0 }, metric, n)
}

// groupBy partitions rows by key. Keys are returned in order of first appearance.
func groupBy[T any, K comparable](rows []T, key func(T) K) ([]K, map[K][]T) {
	var keys []K
	groups := make(map[K][]T)
	for _, row := range rows {
		k := key(row)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], row)
	}
	return keys, groups
}
