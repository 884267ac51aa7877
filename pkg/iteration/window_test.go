package iteration

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"pairs", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder dropped", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}}},
		{"singletons", []int{1, 2, 3}, 1, [][]int{{1}, {2}, {3}}},
		{"fewer than one window", []int{1, 2}, 3, nil},
		{"empty", nil, 2, nil},
		{"zero size", []int{1, 2}, 0, nil},
		{"negative size", []int{1, 2}, -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Window(tt.items, tt.size))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), WindowCount(len(tt.items), tt.size))
		})
	}
}

func TestWindow_StopsEarly(t *testing.T) {
	seen := 0
	for range Window([]int{1, 2, 3, 4, 5, 6}, 2) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestWindow_CopiesItems(t *testing.T) {
	items := []int{1, 2}
	for w := range Window(items, 2) {
		w[0] = 99
	}
	assert.Equal(t, []int{1, 2}, items)
}

func TestSkip(t *testing.T) {
	items := []string{"a", "b", "c"}
	assert.Equal(t, []string{"b", "c"}, Skip(items, 1))
	assert.Equal(t, items, Skip(items, 0))
	assert.Equal(t, items, Skip(items, -2))
	assert.Empty(t, Skip(items, 3))
	assert.Empty(t, Skip(items, 10))
}
