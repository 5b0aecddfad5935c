package services

import (
	"context"
	"testing"
	"time"

	"github.com/hotelbook/apiserver/internal/store"
	"github.com/hotelbook/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNights(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, Nights(day, day))
	assert.Equal(t, 1, Nights(day, day.Add(6*time.Hour)))
	assert.Equal(t, 2, Nights(day, day.Add(25*time.Hour)))
	assert.Equal(t, 3, Nights(day, day.AddDate(0, 0, 3)))
}

func newBookingFixture(t *testing.T) (*BookingService, types.User, types.Hotel) {
	t.Helper()
	db := store.NewMemoryDB()
	ctx := context.Background()

	user, err := db.Users().Create(ctx, types.User{Email: "guest@example.com", FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)
	hotel, err := db.Hotels().Create(ctx, types.Hotel{
		OwnerID:         "owner",
		HotelAttributes: validAttributes("Sea View", "Lisbon", 80, 4),
		ImageURLs:       []string{"https://media.test/a"},
	})
	require.NoError(t, err)

	return NewBookingService(db.Bookings(), db.Hotels(), db.Users()), user, hotel
}

func TestBookingService_Create(t *testing.T) {
	svc, user, hotel := newBookingFixture(t)
	ctx := context.Background()
	checkIn := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)

	booking, err := svc.Create(ctx, user.ID, hotel.ID, types.BookingRequest{
		CheckIn:    checkIn,
		CheckOut:   checkIn.AddDate(0, 0, 3),
		AdultCount: 2,
		ChildCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, booking.Nights)
	assert.Equal(t, 240.0, booking.TotalCost)
	assert.Equal(t, "Grace", booking.FirstName)
	assert.Equal(t, "guest@example.com", booking.Email)

	mine, err := svc.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, hotel.ID, mine[0].Hotel.ID)
}

func TestBookingService_CreateRejects(t *testing.T) {
	svc, user, hotel := newBookingFixture(t)
	ctx := context.Background()
	checkIn := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, user.ID, hotel.ID, types.BookingRequest{
		CheckIn: checkIn, CheckOut: checkIn, AdultCount: 1,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, user.ID, hotel.ID, types.BookingRequest{
		CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 1), AdultCount: 0,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, user.ID, hotel.ID, types.BookingRequest{
		CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 1), AdultCount: 5,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, user.ID, "missing", types.BookingRequest{
		CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 1), AdultCount: 1,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
