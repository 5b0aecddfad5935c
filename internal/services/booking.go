package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hotelbook/apiserver/internal/validator"
	"github.com/hotelbook/apiserver/types"
)

// BookingRepository defines persistence operations for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking types.Booking) (types.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]types.UserBooking, error)
}

// BookingService records stays. No payment is taken.
type BookingService struct {
	bookings BookingRepository
	hotels   HotelRepository
	users    UserRepository
}

func NewBookingService(bookings BookingRepository, hotels HotelRepository, users UserRepository) *BookingService {
	return &BookingService{bookings: bookings, hotels: hotels, users: users}
}

// Nights returns the number of billed nights between checkIn and checkOut,
// rounding partial days up, with a minimum of one.
func Nights(checkIn, checkOut time.Time) int {
	days := checkOut.Sub(checkIn).Hours() / 24
	return max(1, int(math.Ceil(days)))
}

// Create books hotelID for userID.
func (s *BookingService) Create(ctx context.Context, userID, hotelID string, req types.BookingRequest) (types.Booking, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Create")
	defer span.End()

	if err := fromValidator(validator.GetValidator().Struct(req)); err != nil {
		return types.Booking{}, err
	}
	if !req.CheckOut.After(req.CheckIn) {
		return types.Booking{}, NewValidationError("checkOut", "must be after checkIn")
	}

	hotel, err := s.hotels.Get(ctx, hotelID)
	if err != nil {
		return types.Booking{}, err
	}

	verr := &ValidationError{}
	if req.AdultCount > hotel.AdultCount {
		verr.add("adultCount", fmt.Sprintf("must be at most %d", hotel.AdultCount))
	}
	if req.ChildCount > hotel.ChildCount {
		verr.add("childCount", fmt.Sprintf("must be at most %d", hotel.ChildCount))
	}
	if err := verr.orNil(); err != nil {
		return types.Booking{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.Booking{}, fmt.Errorf("load user: %w", err)
	}

	nights := Nights(req.CheckIn, req.CheckOut)
	booking, err := s.bookings.Create(ctx, types.Booking{
		HotelID:    hotel.ID,
		UserID:     user.ID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		AdultCount: req.AdultCount,
		ChildCount: req.ChildCount,
		CheckIn:    req.CheckIn.UTC(),
		CheckOut:   req.CheckOut.UTC(),
		Nights:     nights,
		TotalCost:  float64(nights) * hotel.PricePerNight,
	})
	if err != nil {
		return types.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	return booking, nil
}

// ListByUser returns the user's bookings, newest first.
func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]types.UserBooking, error) {
	return s.bookings.ListByUser(ctx, userID)
}
