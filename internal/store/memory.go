package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hotelbook/apiserver/types"
)

// MemoryDB is an in-process store backing the same repository contracts as the
// Postgres repositories. It is used for local development and tests.
type MemoryDB struct {
	mu       sync.RWMutex
	users    []types.User
	hotels   []types.Hotel
	bookings []types.Booking
	seq      int64
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{}
}

func (m *MemoryDB) Users() *MemoryUserRepository {
	return &MemoryUserRepository{db: m}
}

func (m *MemoryDB) Hotels() *MemoryHotelRepository {
	return &MemoryHotelRepository{db: m}
}

func (m *MemoryDB) Bookings() *MemoryBookingRepository {
	return &MemoryBookingRepository{db: m}
}

// MemoryUserRepository is the in-memory user store.
type MemoryUserRepository struct {
	db *MemoryDB
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, user := range r.db.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, user := range r.db.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == user.Email {
			return types.User{}, ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.db.users = append(r.db.users, user)
	return user, nil
}

// MemoryHotelRepository is the in-memory listing store.
type MemoryHotelRepository struct {
	db *MemoryDB
}

func (r *MemoryHotelRepository) Search(_ context.Context, q types.SearchQuery, offset, limit int) ([]types.Hotel, int, error) {
	if offset < 0 {
		return nil, 0, fmt.Errorf("invalid search offset %d", offset)
	}
	if limit < 1 {
		limit = types.SearchPageSize
	}

	r.db.mu.RLock()
	matched := make([]types.Hotel, 0)
	for _, hotel := range r.db.hotels {
		if matchesQuery(hotel, q) {
			matched = append(matched, cloneHotel(hotel))
		}
	}
	r.db.mu.RUnlock()

	sortHotels(matched, q.Sort)

	total := len(matched)
	if offset >= total {
		return []types.Hotel{}, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (r *MemoryHotelRepository) List(_ context.Context) ([]types.Hotel, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	hotels := make([]types.Hotel, 0, len(r.db.hotels))
	for _, hotel := range r.db.hotels {
		hotels = append(hotels, cloneHotel(hotel))
	}
	return hotels, nil
}

func (r *MemoryHotelRepository) ListByOwner(_ context.Context, ownerID string) ([]types.Hotel, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	hotels := make([]types.Hotel, 0)
	for _, hotel := range r.db.hotels {
		if hotel.OwnerID == ownerID {
			hotels = append(hotels, cloneHotel(hotel))
		}
	}
	return hotels, nil
}

func (r *MemoryHotelRepository) Get(_ context.Context, id string) (types.Hotel, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if i := r.db.hotelIndex("", id); i >= 0 {
		return cloneHotel(r.db.hotels[i]), nil
	}
	return types.Hotel{}, ErrNotFound
}

func (r *MemoryHotelRepository) GetOwned(_ context.Context, ownerID, id string) (types.Hotel, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if i := r.db.hotelIndex(ownerID, id); i >= 0 {
		return cloneHotel(r.db.hotels[i]), nil
	}
	return types.Hotel{}, ErrNotFound
}

func (r *MemoryHotelRepository) Create(_ context.Context, hotel types.Hotel) (types.Hotel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.seq++
	hotel.ID = uuid.NewString()
	hotel.Seq = r.db.seq
	if hotel.LastUpdated.IsZero() {
		hotel.LastUpdated = time.Now().UTC()
	}
	hotel = cloneHotel(hotel)
	r.db.hotels = append(r.db.hotels, hotel)
	return cloneHotel(hotel), nil
}

func (r *MemoryHotelRepository) Update(_ context.Context, hotel types.Hotel, prependImages []string) (types.Hotel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i := r.db.hotelIndex(hotel.OwnerID, hotel.ID)
	if i < 0 {
		return types.Hotel{}, ErrNotFound
	}
	current := &r.db.hotels[i]
	current.HotelAttributes = hotel.HotelAttributes
	current.Facilities = slices.Clone(hotel.Facilities)
	current.ImageURLs = append(slices.Clone(prependImages), current.ImageURLs...)
	current.LastUpdated = hotel.LastUpdated
	if current.LastUpdated.IsZero() {
		current.LastUpdated = time.Now().UTC()
	}
	return cloneHotel(*current), nil
}

func (r *MemoryHotelRepository) Delete(_ context.Context, ownerID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i := r.db.hotelIndex(ownerID, id)
	if i < 0 {
		return ErrNotFound
	}
	r.db.hotels = slices.Delete(r.db.hotels, i, i+1)
	r.db.bookings = slices.DeleteFunc(r.db.bookings, func(b types.Booking) bool {
		return b.HotelID == id
	})
	return nil
}

// MemoryBookingRepository is the in-memory booking store.
type MemoryBookingRepository struct {
	db *MemoryDB
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking types.Booking) (types.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	booking.ID = uuid.NewString()
	booking.CreatedAt = time.Now().UTC()
	r.db.bookings = append(r.db.bookings, booking)
	return booking, nil
}

func (r *MemoryBookingRepository) ListByUser(_ context.Context, userID string) ([]types.UserBooking, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	results := make([]types.UserBooking, 0)
	for i := len(r.db.bookings) - 1; i >= 0; i-- {
		booking := r.db.bookings[i]
		if booking.UserID != userID {
			continue
		}
		h := r.db.hotelIndex("", booking.HotelID)
		if h < 0 {
			continue
		}
		results = append(results, types.UserBooking{
			Booking: booking,
			Hotel:   cloneHotel(r.db.hotels[h]),
		})
	}
	return results, nil
}

// hotelIndex returns the position of the listing with the given id, or -1.
// An empty ownerID matches any owner. Callers must hold the lock.
func (m *MemoryDB) hotelIndex(ownerID, id string) int {
	for i, hotel := range m.hotels {
		if hotel.ID == id && (ownerID == "" || hotel.OwnerID == ownerID) {
			return i
		}
	}
	return -1
}

func matchesQuery(hotel types.Hotel, q types.SearchQuery) bool {
	if destination := strings.ToLower(strings.TrimSpace(q.Destination)); destination != "" {
		if !strings.Contains(strings.ToLower(hotel.City), destination) &&
			!strings.Contains(strings.ToLower(hotel.Country), destination) &&
			!strings.Contains(strings.ToLower(hotel.Name), destination) {
			return false
		}
	}
	if len(q.Stars) > 0 && !slices.Contains(q.Stars, hotel.StarRating) {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, hotel.Type) {
		return false
	}
	if len(q.Facilities) > 0 && !slices.ContainsFunc(q.Facilities, func(f string) bool {
		return slices.Contains(hotel.Facilities, f)
	}) {
		return false
	}
	if q.MaxPrice != nil && hotel.PricePerNight > *q.MaxPrice {
		return false
	}
	return true
}

func sortHotels(hotels []types.Hotel, option types.SortOption) {
	sort.SliceStable(hotels, func(i, j int) bool {
		a, b := hotels[i], hotels[j]
		switch option {
		case types.SortStarRating:
			if a.StarRating != b.StarRating {
				return a.StarRating > b.StarRating
			}
		case types.SortPriceAsc:
			if a.PricePerNight != b.PricePerNight {
				return a.PricePerNight < b.PricePerNight
			}
		case types.SortPriceDesc:
			if a.PricePerNight != b.PricePerNight {
				return a.PricePerNight > b.PricePerNight
			}
		}
		return a.Seq < b.Seq
	})
}

func cloneHotel(hotel types.Hotel) types.Hotel {
	hotel.Facilities = slices.Clone(hotel.Facilities)
	hotel.ImageURLs = slices.Clone(hotel.ImageURLs)
	return hotel
}
