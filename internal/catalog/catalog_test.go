package catalog

import (
	"testing"

	"github.com/hotelbook/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Contains(t, c.HotelTypes, "Budget")
	assert.Contains(t, c.Facilities, "Free WiFi")
	assert.Equal(t, []types.SortOption{types.SortStarRating, types.SortPriceAsc, types.SortPriceDesc}, c.SortOptions)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, c.StarRatings)
	assert.Equal(t, types.SearchPageSize, c.PageSize)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no types":       "facilities: [Spa]",
		"no facilities":  "hotel_types: [Budget]",
		"duplicate type": "hotel_types: [Budget, Budget]\nfacilities: [Spa]",
		"unknown sort":   "hotel_types: [Budget]\nfacilities: [Spa]\nsort_options: [name]",
		"not yaml":       "hotel_types: [Budget",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
