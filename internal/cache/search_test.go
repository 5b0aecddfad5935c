package cache

import (
	"context"
	"testing"

	"github.com/hotelbook/apiserver/config"
	"github.com/hotelbook/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestCanonical_OrderInsensitive(t *testing.T) {
	price := 120.0
	a := types.SearchQuery{
		Destination: "Lisbon",
		Stars:       []int{5, 3},
		Types:       []string{"Luxury", "Budget"},
		Facilities:  []string{"Pool", "Free WiFi"},
		MaxPrice:    &price,
		Sort:        types.SortPriceAsc,
		Page:        2,
	}
	b := types.SearchQuery{
		Destination: " lisbon ",
		Stars:       []int{3, 5},
		Types:       []string{"Budget", "Luxury"},
		Facilities:  []string{"Free WiFi", "Pool"},
		MaxPrice:    &price,
		Sort:        types.SortPriceAsc,
		Page:        2,
	}
	assert.Equal(t, Canonical(a), Canonical(b))
	assert.Equal(t, EntryKey(1, a), EntryKey(1, b))
}

func TestEntryKey_Distinguishes(t *testing.T) {
	base := types.SearchQuery{Destination: "Lisbon", Page: 1}
	nextPage := base
	nextPage.Page = 2
	zero := 0.0
	capped := base
	capped.MaxPrice = &zero

	assert.NotEqual(t, EntryKey(0, base), EntryKey(0, nextPage))
	assert.NotEqual(t, EntryKey(0, base), EntryKey(0, capped))
	assert.NotEqual(t, EntryKey(0, base), EntryKey(1, base))
	assert.Contains(t, EntryKey(7, base), "hotelbook:search:7:")
}

func TestCanonical_DoesNotMutateQuery(t *testing.T) {
	q := types.SearchQuery{Types: []string{"b", "a"}, Stars: []int{4, 2}}
	_ = Canonical(q)
	assert.Equal(t, []string{"b", "a"}, q.Types)
	assert.Equal(t, []int{4, 2}, q.Stars)
}

func TestNewRedisClient_RequiresAddr(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{})
	assert.Error(t, err)
}
