// Package dedup removes duplicate items from slices while preserving
// order.
package dedup

// ByKey returns items with duplicates removed, keyed by the given
// function. The first occurrence of each key wins.
func ByKey[T any](items []T, key func(T) string) []T {
	if len(items) < 2 {
		return items
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))

	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}

		out = append(out, item)
	}

	return out
}
