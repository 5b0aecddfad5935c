package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/hotelbook/apiserver/internal/store"
	"github.com/hotelbook/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHotelFixture(t *testing.T, opts ...HotelOption) (*HotelService, *countingHotels, *fakeMedia) {
	t.Helper()
	repo := &countingHotels{MemoryHotelRepository: store.NewMemoryDB().Hotels()}
	media := &fakeMedia{}
	return NewHotelService(repo, media, opts...), repo, media
}

func TestHotelService_CreatePreservesImageOrder(t *testing.T) {
	svc, _, media := newHotelFixture(t)
	// Earlier images finish last.
	media.delay = func(content []byte) time.Duration {
		return time.Duration('z'-content[0]) * time.Millisecond
	}

	hotel, err := svc.Create(context.Background(), "alice", validAttributes("Sea View", "Lisbon", 100, 4), images("a", "b", "c", "d", "e", "f"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://media.test/a", "https://media.test/b", "https://media.test/c",
		"https://media.test/d", "https://media.test/e", "https://media.test/f",
	}, hotel.ImageURLs)
	assert.Equal(t, "alice", hotel.OwnerID)
	assert.False(t, hotel.LastUpdated.IsZero())
}

func TestHotelService_CreateValidation(t *testing.T) {
	svc, repo, media := newHotelFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", 100, 4), nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", 100, 4), images("1", "2", "3", "4", "5", "6", "7"))
	assert.ErrorIs(t, err, ErrValidation)

	attrs := validAttributes("", "Lisbon", -1, 9)
	_, err = svc.Create(ctx, "alice", attrs, images("a"))
	require.ErrorIs(t, err, ErrValidation)
	verr := err.(*ValidationError)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "pricePerNight", "starRating"}, fields)

	_, err = svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", 100, 4), []Image{{ContentType: "text/plain", Content: []byte("x")}})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, media.Calls())
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHotelService_CreateRejectsNonFinitePrice(t *testing.T) {
	svc, repo, media := newHotelFixture(t)
	ctx := context.Background()

	for _, price := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		_, err := svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", price, 4), images("a"))
		require.ErrorIs(t, err, ErrValidation, "price %v", price)
		fields := make([]string, 0)
		for _, f := range err.(*ValidationError).Fields {
			fields = append(fields, f.Field)
		}
		assert.Contains(t, fields, "pricePerNight")
	}

	assert.Zero(t, media.Calls())
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHotelService_CreateUploadFailurePersistsNothing(t *testing.T) {
	svc, repo, media := newHotelFixture(t)
	media.fail = "b"
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", 100, 4), images("a", "b", "c"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHotelService_UpdateOwnership(t *testing.T) {
	svc, _, media := newHotelFixture(t)
	ctx := context.Background()

	hotel, err := svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", 100, 4), images("a"))
	require.NoError(t, err)
	callsAfterCreate := media.Calls()

	_, err = svc.Update(ctx, "bob", hotel.ID, validAttributes("Mine now", "Lisbon", 1, 1), images("evil"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, callsAfterCreate, media.Calls())

	_, err = svc.Update(ctx, "alice", "missing", validAttributes("X", "Lisbon", 1, 1), nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.Delete(ctx, "bob", hotel.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = svc.Delete(ctx, "bob", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHotelService_UpdatePrependsNewImages(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newHotelFixture(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	hotel, err := svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", 100, 4), images("a", "b"))
	require.NoError(t, err)

	now = now.Add(time.Hour)
	updated, err := svc.Update(ctx, "alice", hotel.ID, validAttributes("Sea View II", "Lisbon", 120, 5), images("c"))
	require.NoError(t, err)
	assert.Equal(t, "Sea View II", updated.Name)
	assert.Equal(t, []string{"https://media.test/c", "https://media.test/a", "https://media.test/b"}, updated.ImageURLs)
	assert.True(t, updated.LastUpdated.Equal(now))

	kept, err := svc.Update(ctx, "alice", hotel.ID, validAttributes("Sea View III", "Lisbon", 120, 5), nil)
	require.NoError(t, err)
	assert.Len(t, kept.ImageURLs, 3)
}

func TestHotelService_SearchHonoursFilters(t *testing.T) {
	svc, _, _ := newHotelFixture(t)
	ctx := context.Background()

	seed := []types.HotelAttributes{
		validAttributes("Sea View", "Lisbon", 120, 4),
		validAttributes("Old Town", "Lisbon", 60, 3),
		validAttributes("Riverside", "Porto", 80, 4),
		validAttributes("Cheap Sleep", "Lisbon", 25, 2),
	}
	seed[3].Facilities = []string{"Parking"}
	for _, attrs := range seed {
		_, err := svc.Create(ctx, "alice", attrs, images("img"))
		require.NoError(t, err)
	}

	maxPrice := 100.0
	q := types.SearchQuery{
		Destination: "lisbon",
		Stars:       []int{3, 4},
		Facilities:  []string{"Free WiFi"},
		MaxPrice:    &maxPrice,
		Page:        1,
	}
	page, err := svc.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Old Town", page.Data[0].Name)
	for _, hotel := range page.Data {
		assert.Contains(t, []int{3, 4}, hotel.StarRating)
		assert.LessOrEqual(t, hotel.PricePerNight, maxPrice)
	}
	assert.Equal(t, types.Pagination{Total: 1, Page: 1, Pages: 1}, page.Pagination)
}

func TestHotelService_SearchPagination(t *testing.T) {
	svc, _, _ := newHotelFixture(t)
	ctx := context.Background()
	prices := []float64{90, 10, 70, 30, 50, 20, 80, 40, 60, 100, 15, 35}
	for i, price := range prices {
		_, err := svc.Create(ctx, "alice", validAttributes(string(rune('A'+i)), "Lisbon", price, 3), images("img"))
		require.NoError(t, err)
	}

	page, err := svc.Search(ctx, types.SearchQuery{Sort: types.SortPriceAsc, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, types.Pagination{Total: 12, Page: 1, Pages: 3}, page.Pagination)
	require.Len(t, page.Data, types.SearchPageSize)
	for i := 1; i < len(page.Data); i++ {
		assert.LessOrEqual(t, page.Data[i-1].PricePerNight, page.Data[i].PricePerNight)
	}

	page, err = svc.Search(ctx, types.SearchQuery{Sort: types.SortPriceDesc, Page: 3})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.GreaterOrEqual(t, page.Data[0].PricePerNight, page.Data[1].PricePerNight)

	page, err = svc.Search(ctx, types.SearchQuery{Page: 4})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.Equal(t, types.Pagination{Total: 12, Page: 4, Pages: 3}, page.Pagination)
}

func TestHotelService_SearchNonPositiveMaxPrice(t *testing.T) {
	svc, repo, _ := newHotelFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "alice", validAttributes("Free", "Lisbon", 0, 3), images("img"))
	require.NoError(t, err)

	zero := 0.0
	page, err := svc.Search(ctx, types.SearchQuery{MaxPrice: &zero, Page: 1})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, types.Pagination{Total: 0, Page: 1, Pages: 0}, page.Pagination)
	assert.Zero(t, repo.searches)
}

func TestHotelService_SearchPageBeyondOffsetRange(t *testing.T) {
	svc, _, _ := newHotelFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "alice", validAttributes("River Inn", "Lisbon", 80, 3), images("img"))
	require.NoError(t, err)

	for _, pageNo := range []int{math.MaxInt/types.SearchPageSize + 2, 2305843009213693953, math.MaxInt} {
		page, err := svc.Search(ctx, types.SearchQuery{Page: pageNo})
		require.NoError(t, err)
		assert.Empty(t, page.Data, "page %d", pageNo)
		assert.Equal(t, types.Pagination{Total: 1, Page: pageNo, Pages: 1}, page.Pagination)
	}
}

func TestSearchOffset(t *testing.T) {
	assert.Equal(t, 0, searchOffset(1))
	assert.Equal(t, types.SearchPageSize, searchOffset(2))
	last := math.MaxInt/types.SearchPageSize + 1
	assert.Equal(t, (last-1)*types.SearchPageSize, searchOffset(last))
	assert.Equal(t, math.MaxInt, searchOffset(last+1))
	assert.Equal(t, math.MaxInt, searchOffset(math.MaxInt))
}

func TestHotelService_SearchCacheSkipsPagesFromBeforeAWrite(t *testing.T) {
	cache := &fakeCache{}
	repo := &writeDuringSearch{countingHotels: &countingHotels{MemoryHotelRepository: store.NewMemoryDB().Hotels()}}
	svc := NewHotelService(repo, &fakeMedia{}, WithSearchCache(cache))
	ctx := context.Background()

	repo.write = func(ctx context.Context) {
		_, err := svc.Create(ctx, "alice", validAttributes("Late Arrival", "Lisbon", 90, 3), images("late"))
		require.NoError(t, err)
	}

	first, err := svc.Search(ctx, types.SearchQuery{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, first.Data)

	second, err := svc.Search(ctx, types.SearchQuery{Page: 1})
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	assert.Equal(t, "Late Arrival", second.Data[0].Name)
	assert.Equal(t, 2, repo.searches)

	third, err := svc.Search(ctx, types.SearchQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Equal(t, 2, repo.searches)
}

func TestHotelService_WritesPublishAndInvalidate(t *testing.T) {
	events := &fakeEvents{}
	cache := &fakeCache{}
	svc, repo, _ := newHotelFixture(t, WithEventPublisher(events), WithSearchCache(cache))
	ctx := context.Background()

	_, err := svc.Search(ctx, types.SearchQuery{Page: 1})
	require.NoError(t, err)
	_, err = svc.Search(ctx, types.SearchQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.searches)

	hotel, err := svc.Create(ctx, "alice", validAttributes("Sea View", "Lisbon", 100, 4), images("a"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, "alice", hotel.ID, validAttributes("Sea View", "Lisbon", 110, 4), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "alice", hotel.ID))

	assert.Equal(t, 3, cache.invalidated)
	require.Len(t, events.events, 3)
	assert.Equal(t, types.HotelCreated, events.events[0].Type)
	assert.Equal(t, types.HotelUpdated, events.events[1].Type)
	assert.Equal(t, types.HotelDeleted, events.events[2].Type)
	assert.Equal(t, hotel.ID, events.events[2].HotelID)

	page, err := svc.Search(ctx, types.SearchQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.searches)
	assert.Empty(t, page.Data)
}

func TestHotelService_PublishFailureDoesNotFailWrite(t *testing.T) {
	events := &fakeEvents{err: assert.AnError}
	svc, _, _ := newHotelFixture(t, WithEventPublisher(events))

	hotel, err := svc.Create(context.Background(), "alice", validAttributes("Sea View", "Lisbon", 100, 4), images("a"))
	require.NoError(t, err)
	assert.NotEmpty(t, hotel.ID)
	assert.Len(t, events.events, 1)
}
