package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hotelbook/apiserver/internal/catalog"
	"github.com/hotelbook/apiserver/internal/services"
	"github.com/hotelbook/apiserver/types"
)

const hotelNotFound = "hotel not found"

// HotelHandler serves the public listing endpoints and booking creation.
type HotelHandler struct {
	hotels   *services.HotelService
	bookings *services.BookingService
	catalog  catalog.Catalog
}

// NewHotelHandler constructs a HotelHandler with the provided dependencies.
func NewHotelHandler(hotels *services.HotelService, bookings *services.BookingService, cat catalog.Catalog) *HotelHandler {
	return &HotelHandler{hotels: hotels, bookings: bookings, catalog: cat}
}

// HotelRouter registers public hotel routes on the given router. Booking
// creation is guarded by authMiddleware.
func HotelRouter(
	r chi.Router,
	hotels *services.HotelService,
	bookings *services.BookingService,
	cat catalog.Catalog,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewHotelHandler(hotels, bookings, cat)

	r.Get("/", handler.List)
	r.Get("/search", handler.Search)
	r.Get("/options", handler.Options)
	r.Route("/{hotelID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(authMiddleware).Post("/bookings", handler.CreateBooking)
	})
}

// BookingsRouter registers the current user's booking history.
func BookingsRouter(r chi.Router, bookings *services.BookingService, authMiddleware func(http.Handler) http.Handler) {
	handler := &HotelHandler{bookings: bookings}
	r.With(authMiddleware).Get("/", handler.MyBookings)
}

// Search returns one page of listings matching the query string.
func (h *HotelHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := services.ParseSearchQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}

	page, err := h.hotels.Search(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// List returns every listing.
func (h *HotelHandler) List(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.hotels.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

// Options returns the filter choices clients may offer.
func (h *HotelHandler) Options(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}

// Get returns a single listing by id.
func (h *HotelHandler) Get(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.hotels.Get(r.Context(), chi.URLParam(r, "hotelID"))
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

// CreateBooking books the listing for the authenticated user.
func (h *HotelHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req types.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	booking, err := h.bookings.Create(r.Context(), userID, chi.URLParam(r, "hotelID"), req)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// MyBookings lists the authenticated user's bookings with their hotels.
func (h *HotelHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	bookings, err := h.bookings.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}
