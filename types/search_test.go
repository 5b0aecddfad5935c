package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, size, want int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{11, 5, 3},
		{3, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPages(tc.total, tc.size), "total=%d size=%d", tc.total, tc.size)
	}
}

func TestSortOptionKnown(t *testing.T) {
	assert.True(t, SortStarRating.Known())
	assert.True(t, SortPriceAsc.Known())
	assert.True(t, SortPriceDesc.Known())
	assert.False(t, SortDefault.Known())
	assert.False(t, SortOption("name").Known())
}
