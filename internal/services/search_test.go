package services

import (
	"net/url"
	"testing"

	"github.com/hotelbook/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchQuery_Defaults(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, types.SearchQuery{Page: 1}, q)
}

func TestParseSearchQuery_AllParameters(t *testing.T) {
	values := url.Values{
		"destination":  {"  Lisbon "},
		"stars":        {"5", "4"},
		"types[]":      {"Budget"},
		"facilities":   {"Free WiFi,Pool", "Pool"},
		"maxPrice":     {"150.5"},
		"sortOption":   {"pricePerNightDesc"},
		"page":         {"3"},
		"unrecognised": {"ignored"},
	}

	q, err := ParseSearchQuery(values)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", q.Destination)
	assert.Equal(t, []int{5, 4}, q.Stars)
	assert.Equal(t, []string{"Budget"}, q.Types)
	assert.Equal(t, []string{"Free WiFi", "Pool"}, q.Facilities)
	require.NotNil(t, q.MaxPrice)
	assert.Equal(t, 150.5, *q.MaxPrice)
	assert.Equal(t, types.SortPriceDesc, q.Sort)
	assert.Equal(t, 3, q.Page)
}

func TestParseSearchQuery_UnknownSortFallsBack(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{"sortOption": {"name"}})
	require.NoError(t, err)
	assert.Equal(t, types.SortDefault, q.Sort)
}

func TestParseSearchQuery_Invalid(t *testing.T) {
	cases := map[string]url.Values{
		"page zero":       {"page": {"0"}},
		"page text":       {"page": {"two"}},
		"max price text":  {"maxPrice": {"cheap"}},
		"max price NaN":   {"maxPrice": {"NaN"}},
		"stars range":     {"stars": {"6"}},
		"stars non digit": {"stars": {"four"}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSearchQuery(values)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestParseSearchQuery_NonPositiveMaxPriceIsKept(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{"maxPrice": {"0"}})
	require.NoError(t, err)
	require.NotNil(t, q.MaxPrice)
	assert.Equal(t, 0.0, *q.MaxPrice)
}
