package client

import (
	"context"
	"errors"
	"sync"

	"github.com/hotelbook/apiserver/types"
)

// ErrStale is returned for a search that was superseded by a newer one.
var ErrStale = errors.New("search superseded by a newer request")

// HotelSearcher runs a single search request.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, q types.SearchQuery) (types.SearchPage, error)
}

// Searcher serialises searches so the latest request wins. Starting a search
// cancels the one in flight, and a response that arrives after a newer search
// started is dropped.
type Searcher struct {
	api HotelSearcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSearcher(api HotelSearcher) *Searcher {
	return &Searcher{api: api}
}

func (s *Searcher) Search(ctx context.Context, q types.SearchQuery) (types.SearchPage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	page, err := s.api.SearchHotels(ctx, q)

	s.mu.Lock()
	latest := seq == s.seq
	if latest {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !latest {
		return types.SearchPage{}, ErrStale
	}
	return page, err
}
