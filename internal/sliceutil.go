// Package internal holds small helpers shared by the builders. None of them
// modify their input slice.
package internal

// Map returns f applied to every element of xs.
func Map[A, B any](xs []A, f func(A) B) []B {
	out := make([]B, 0, len(xs))
	for _, x := range xs {
		out = append(out, f(x))
	}
	return out
}

// Filter returns the elements of xs that keep accepts, in order.
func Filter[T any](xs []T, keep func(T) bool) []T {
	var out []T
	for _, x := range xs {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out
}

// Unique drops repeated elements, keeping the first occurrence.
func Unique[T comparable](xs []T) []T {
	seen := make(map[T]bool, len(xs))
	return Filter(xs, func(x T) bool {
		if seen[x] {
			return false
		}
		seen[x] = true
		return true
	})
}

// Chunk splits xs into consecutive batches of at most n. The batches share
// the backing array of xs.
func Chunk[T any](xs []T, n int) [][]T {
	if n <= 0 {
		return nil
	}
	out := make([][]T, 0, (len(xs)+n-1)/n)
	for i := 0; i < len(xs); i += n {
		out = append(out, xs[i:min(i+n, len(xs))])
	}
	return out
}
