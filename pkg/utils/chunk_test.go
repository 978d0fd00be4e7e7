package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	cases := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"empty", nil, 3, nil},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"size larger than input", []int{1, 2}, 10, [][]int{{1, 2}}},
		{"zero size", []int{1, 2, 3}, 0, [][]int{{1, 2, 3}}},
		{"size one", []int{7, 8}, 1, [][]int{{7}, {8}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Chunk(tc.items, tc.size))
		})
	}
}

func TestChunk_AppendDoesNotLeakIntoNextChunk(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	chunks := Chunk(items, 2)

	_ = append(chunks[0], "x")
	require.Equal(t, []string{"c", "d"}, chunks[1])
}
