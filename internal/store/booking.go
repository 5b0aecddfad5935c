package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hotelbook/apiserver/types"
	"github.com/lib/pq"
)

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking types.Booking) (types.Booking, error) {
	booking.ID = uuid.NewString()
	booking.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO bookings (id, hotel_id, user_id, first_name, last_name, email,
			adult_count, child_count, check_in, check_out, nights, total_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		booking.ID,
		booking.HotelID,
		booking.UserID,
		booking.FirstName,
		booking.LastName,
		booking.Email,
		booking.AdultCount,
		booking.ChildCount,
		booking.CheckIn,
		booking.CheckOut,
		booking.Nights,
		booking.TotalCost,
		booking.CreatedAt,
	)
	if err != nil {
		return types.Booking{}, fmt.Errorf("db error: %w", err)
	}
	return booking, nil
}

// ListByUser returns the user's bookings joined with their hotels, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]types.UserBooking, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []types.UserBooking{}, nil
	}

	const query = `
		SELECT b.id, b.hotel_id, b.user_id, b.first_name, b.last_name, b.email,
			b.adult_count, b.child_count, b.check_in, b.check_out, b.nights, b.total_cost, b.created_at,
			h.id, h.owner_id, h.name, h.city, h.country, h.description, h.type, h.price_per_night,
			h.star_rating, h.adult_count, h.child_count, h.facilities, h.image_urls, h.last_updated, h.seq
		FROM bookings b
		JOIN hotels h ON h.id = b.hotel_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	results := make([]types.UserBooking, 0)
	for rows.Next() {
		var item types.UserBooking
		b := &item.Booking
		h := &item.Hotel
		if err := rows.Scan(
			&b.ID,
			&b.HotelID,
			&b.UserID,
			&b.FirstName,
			&b.LastName,
			&b.Email,
			&b.AdultCount,
			&b.ChildCount,
			&b.CheckIn,
			&b.CheckOut,
			&b.Nights,
			&b.TotalCost,
			&b.CreatedAt,
			&h.ID,
			&h.OwnerID,
			&h.Name,
			&h.City,
			&h.Country,
			&h.Description,
			&h.Type,
			&h.PricePerNight,
			&h.StarRating,
			&h.AdultCount,
			&h.ChildCount,
			pq.Array(&h.Facilities),
			pq.Array(&h.ImageURLs),
			&h.LastUpdated,
			&h.Seq,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return results, nil
}
