package types

import "time"

// HotelAttributes are the owner-editable fields of a hotel listing.
type HotelAttributes struct {
	// Name is the display name of the hotel.
	Name string `json:"name" validate:"required"`

	// City and Country locate the hotel and are matched by destination search.
	City    string `json:"city" validate:"required"`
	Country string `json:"country" validate:"required"`

	// Description is the free-form listing text.
	Description string `json:"description" validate:"required"`

	// Type is the category tag of the hotel (e.g. "Budget", "Boutique").
	Type string `json:"type" validate:"required"`

	// PricePerNight is the nightly price. It is never negative.
	PricePerNight float64 `json:"pricePerNight" validate:"gte=0"`

	// StarRating is an integer rating between 1 and 5.
	StarRating int `json:"starRating" validate:"min=1,max=5"`

	// AdultCount and ChildCount are the guest capacity of the listing.
	AdultCount int `json:"adultCount" validate:"gte=0"`
	ChildCount int `json:"childCount" validate:"gte=0"`

	// Facilities is an order-insensitive set of facility tags.
	Facilities []string `json:"facilities" validate:"dive,required"`
}

// Hotel represents a listing owned by exactly one user.
type Hotel struct {
	// ID is the opaque unique identifier of the listing.
	ID string `json:"id" db:"id"`

	// OwnerID is the identifier of the user who owns the listing.
	// Ownership is never transferred.
	OwnerID string `json:"userId" db:"owner_id"`

	HotelAttributes

	// ImageURLs is the ordered sequence of hosted image URLs.
	// A listing always has at least one image after creation.
	ImageURLs []string `json:"imageUrls" db:"image_urls"`

	// LastUpdated is the timestamp of the most recent write to the listing.
	LastUpdated time.Time `json:"lastUpdated" db:"last_updated"`

	// Seq is the insertion sequence used for default ordering.
	Seq int64 `json:"-" db:"seq"`
}
