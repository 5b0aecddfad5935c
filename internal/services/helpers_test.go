package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hotelbook/apiserver/internal/auth"
	"github.com/hotelbook/apiserver/internal/store"
	"github.com/hotelbook/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeMedia struct {
	mu    sync.Mutex
	calls int
	fail  string
	delay func(content []byte) time.Duration
}

func (m *fakeMedia) Upload(ctx context.Context, content []byte, contentType string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delay != nil {
		select {
		case <-time.After(m.delay(content)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.fail != "" && string(content) == m.fail {
		return "", errors.New("media host rejected upload")
	}
	return "https://media.test/" + string(content), nil
}

func (m *fakeMedia) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeEvents struct {
	mu     sync.Mutex
	events []types.HotelEvent
	err    error
}

func (e *fakeEvents) PublishHotelEvent(_ context.Context, event types.HotelEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

// fakeCache keys pages by generation like the Redis cache, so pages written
// for an old generation stay in the map but are never read again.
type fakeCache struct {
	mu          sync.Mutex
	generation  int64
	pages       map[string]types.SearchPage
	invalidated int
}

func cacheKey(generation int64, q types.SearchQuery) string {
	return fmt.Sprintf("%d|%s|%s|%d", generation, q.Destination, q.Sort, q.Page)
}

func (c *fakeCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *fakeCache) Get(_ context.Context, generation int64, q types.SearchQuery) (types.SearchPage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[cacheKey(generation, q)]
	return page, ok, nil
}

func (c *fakeCache) Set(_ context.Context, generation int64, q types.SearchQuery, page types.SearchPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pages == nil {
		c.pages = map[string]types.SearchPage{}
	}
	c.pages[cacheKey(generation, q)] = page
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.invalidated++
	return nil
}

// writeDuringSearch runs write after the repository search has read its rows,
// the way a concurrent listing write lands between a cache miss and the fill.
type writeDuringSearch struct {
	*countingHotels
	write func(ctx context.Context)
}

func (w *writeDuringSearch) Search(ctx context.Context, q types.SearchQuery, offset, limit int) ([]types.Hotel, int, error) {
	hotels, total, err := w.countingHotels.Search(ctx, q, offset, limit)
	if w.write != nil {
		write := w.write
		w.write = nil
		write(ctx)
	}
	return hotels, total, err
}

// countingHotels records how many times Search reached the repository.
type countingHotels struct {
	*store.MemoryHotelRepository
	searches int
}

func (c *countingHotels) Search(ctx context.Context, q types.SearchQuery, offset, limit int) ([]types.Hotel, int, error) {
	c.searches++
	return c.MemoryHotelRepository.Search(ctx, q, offset, limit)
}

func newTestUserService(t *testing.T, repo UserRepository) *UserService {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	svc := NewUserService(repo, issuer)
	svc.SetHashCost(bcrypt.MinCost)
	return svc
}

func validAttributes(name, city string, price float64, stars int) types.HotelAttributes {
	return types.HotelAttributes{
		Name:          name,
		City:          city,
		Country:       "Portugal",
		Description:   "A place to stay",
		Type:          "Boutique",
		PricePerNight: price,
		StarRating:    stars,
		AdultCount:    2,
		ChildCount:    1,
		Facilities:    []string{"Free WiFi"},
	}
}

func images(names ...string) []Image {
	out := make([]Image, 0, len(names))
	for _, name := range names {
		out = append(out, Image{Filename: name + ".jpg", ContentType: "image/jpeg", Content: []byte(name)})
	}
	return out
}
