package iteration

import "iter"

// Window yields consecutive, non-overlapping windows of exactly size items.
// A trailing remainder shorter than size is dropped. A non-positive size
// yields nothing. Each yielded slice is a fresh copy.
func Window[T any](items []T, size int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		if size <= 0 {
			return
		}
		for start := 0; start+size <= len(items); start += size {
			w := make([]T, size)
			copy(w, items[start:start+size])
			if !yield(w) {
				return
			}
		}
	}
}

// WindowCount returns how many complete windows Window yields for n items
func WindowCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return n / size
}

// Skip returns the items after the first n. It never panics: a negative n
// skips nothing and an n past the end yields an empty slice.
func Skip[T any](items []T, n int) []T {
	if n <= 0 {
		return items
	}
	if n >= len(items) {
		return items[len(items):]
	}
	return items[n:]
}
