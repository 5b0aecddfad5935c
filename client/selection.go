package client

import (
	"math"
	"sync"
	"time"

	"github.com/hotelbook/apiserver/types"
)

// SelectionValues is a snapshot of a Selection.
type SelectionValues struct {
	Destination string
	CheckIn     time.Time
	CheckOut    time.Time
	AdultCount  int
	ChildCount  int
	HotelID     string
}

// Selection holds the stay a user is looking for while they move between
// search and booking. It is not persisted.
type Selection struct {
	mu     sync.Mutex
	values SelectionValues
}

// NewSelection starts a selection for one adult, checking in today and out
// tomorrow.
func NewSelection(now time.Time) *Selection {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return &Selection{values: SelectionValues{
		CheckIn:    today,
		CheckOut:   today.AddDate(0, 0, 1),
		AdultCount: 1,
	}}
}

func (s *Selection) Values() SelectionValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

func (s *Selection) Set(values SelectionValues) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values
}

// Update applies fn to the selection atomically.
func (s *Selection) Update(fn func(*SelectionValues)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.values)
}

// Nights is the number of nights between check-in and check-out, rounded up.
// It is zero until check-out is after check-in.
func (s *Selection) Nights() int {
	v := s.Values()
	if !v.CheckOut.After(v.CheckIn) {
		return 0
	}
	return int(math.Ceil(v.CheckOut.Sub(v.CheckIn).Hours() / 24))
}

// SearchQuery copies the destination into q.
func (s *Selection) SearchQuery(q types.SearchQuery) types.SearchQuery {
	q.Destination = s.Values().Destination
	return q
}

func (s *Selection) BookingRequest() types.BookingRequest {
	v := s.Values()
	return types.BookingRequest{
		CheckIn:    v.CheckIn,
		CheckOut:   v.CheckOut,
		AdultCount: v.AdultCount,
		ChildCount: v.ChildCount,
	}
}
