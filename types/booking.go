package types

import "time"

// Booking is a confirmed stay at a hotel. Payment is not handled.
type Booking struct {
	ID      string `json:"id" db:"id"`
	HotelID string `json:"hotelId" db:"hotel_id"`
	UserID  string `json:"userId" db:"user_id"`

	// Guest contact details copied from the booking user at booking time.
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Email     string `json:"email" db:"email"`

	AdultCount int `json:"adultCount" db:"adult_count"`
	ChildCount int `json:"childCount" db:"child_count"`

	CheckIn  time.Time `json:"checkIn" db:"check_in"`
	CheckOut time.Time `json:"checkOut" db:"check_out"`

	// Nights is the number of billed nights, at least one.
	Nights int `json:"nights" db:"nights"`

	// TotalCost is Nights multiplied by the hotel's nightly price at booking time.
	TotalCost float64 `json:"totalCost" db:"total_cost"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// BookingRequest is the client input for a new booking.
type BookingRequest struct {
	CheckIn    time.Time `json:"checkIn" validate:"required"`
	CheckOut   time.Time `json:"checkOut" validate:"required"`
	AdultCount int       `json:"adultCount" validate:"min=1"`
	ChildCount int       `json:"childCount" validate:"gte=0"`
}

// UserBooking pairs a booking with the hotel it was made for.
type UserBooking struct {
	Booking Booking `json:"booking"`
	Hotel   Hotel   `json:"hotel"`
}
