package types

import "time"

// HotelEventType names a change to a listing.
type HotelEventType string

const (
	HotelCreated HotelEventType = "hotel.created"
	HotelUpdated HotelEventType = "hotel.updated"
	HotelDeleted HotelEventType = "hotel.deleted"
)

// HotelEvent is published after a listing write has been persisted.
type HotelEvent struct {
	Type       HotelEventType `json:"type"`
	HotelID    string         `json:"hotelId"`
	OwnerID    string         `json:"ownerId"`
	OccurredAt time.Time      `json:"occurredAt"`
}
