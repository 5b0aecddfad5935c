package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hotelbook/apiserver/internal/services"
	"github.com/hotelbook/apiserver/types"
)

const (
	maxMultipartMemory = 8 << 20
	// maxListingBody bounds a whole listing upload: every image at its limit
	// plus room for the text fields and multipart framing.
	maxListingBody = services.MaxImages*services.MaxImageSize + 1<<20

	formFieldName        = "name"
	formFieldCity        = "city"
	formFieldCountry     = "country"
	formFieldDescription = "description"
	formFieldType        = "type"
	formFieldPrice       = "pricePerNight"
	formFieldStars       = "starRating"
	formFieldAdults      = "adultCount"
	formFieldChildren    = "childCount"
	formFieldFacilities  = "facilities"
	formFieldImages      = "imageFiles"
)

var (
	errUploadTooLarge = errors.New("uploaded file too large")
	errNotFinite      = errors.New("not a finite number")
)

// MyHotelsHandler serves the owner-scoped listing endpoints.
type MyHotelsHandler struct {
	hotels *services.HotelService
}

// NewMyHotelsHandler constructs a MyHotelsHandler.
func NewMyHotelsHandler(hotels *services.HotelService) *MyHotelsHandler {
	return &MyHotelsHandler{hotels: hotels}
}

// MyHotelsRouter registers owner routes. Every route requires a session.
func MyHotelsRouter(r chi.Router, hotels *services.HotelService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewMyHotelsHandler(hotels)

	r.Use(authMiddleware)
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Get("/{hotelID}", handler.Get)
	r.Put("/{hotelID}", handler.Update)
	r.Delete("/{hotelID}", handler.Delete)
}

// List returns the listings owned by the caller.
func (h *MyHotelsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	hotels, err := h.hotels.ListByOwner(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

// Get returns one owned listing. Listings owned by others are reported as
// missing.
func (h *MyHotelsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	hotel, err := h.hotels.GetOwned(r.Context(), userID, chi.URLParam(r, "hotelID"))
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

// Create accepts a multipart listing with one to six images.
func (h *MyHotelsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	attrs, images, err := parseHotelForm(w, r)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}

	hotel, err := h.hotels.Create(r.Context(), userID, attrs, images)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

// Update replaces the listing attributes and prepends any new images.
func (h *MyHotelsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	attrs, images, err := parseHotelForm(w, r)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}

	hotel, err := h.hotels.Update(r.Context(), userID, chi.URLParam(r, "hotelID"), attrs, images)
	if err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

// Delete removes an owned listing.
func (h *MyHotelsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.hotels.Delete(r.Context(), userID, chi.URLParam(r, "hotelID")); err != nil {
		writeServiceError(w, r, err, hotelNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "hotel deleted"})
}

// parseHotelForm reads the listing fields and image files of a multipart
// request. Malformed input is reported as a *services.ValidationError.
func parseHotelForm(w http.ResponseWriter, r *http.Request) (types.HotelAttributes, []services.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxListingBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.HotelAttributes{}, nil, services.NewValidationError(formFieldImages, errUploadTooLarge.Error())
		}
		return types.HotelAttributes{}, nil, services.NewValidationError("body", "must be a multipart form")
	}

	verr := &services.ValidationError{}
	number := func(field string, parse func(string) error) {
		raw := strings.TrimSpace(r.FormValue(field))
		if raw == "" {
			verr.Fields = append(verr.Fields, services.FieldError{Field: field, Message: "is required"})
			return
		}
		if err := parse(raw); err != nil {
			verr.Fields = append(verr.Fields, services.FieldError{Field: field, Message: "must be a number"})
		}
	}

	attrs := types.HotelAttributes{
		Name:        r.FormValue(formFieldName),
		City:        r.FormValue(formFieldCity),
		Country:     r.FormValue(formFieldCountry),
		Description: r.FormValue(formFieldDescription),
		Type:        r.FormValue(formFieldType),
		Facilities:  parseFacilities(r.MultipartForm),
	}
	number(formFieldPrice, func(raw string) error {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return errNotFinite
		}
		attrs.PricePerNight = price
		return nil
	})
	number(formFieldStars, func(raw string) (err error) {
		attrs.StarRating, err = strconv.Atoi(raw)
		return err
	})
	number(formFieldAdults, func(raw string) (err error) {
		attrs.AdultCount, err = strconv.Atoi(raw)
		return err
	})
	number(formFieldChildren, func(raw string) (err error) {
		attrs.ChildCount, err = strconv.Atoi(raw)
		return err
	})

	images, err := parseImageFiles(r.MultipartForm)
	if err != nil {
		verr.Fields = append(verr.Fields, services.FieldError{Field: formFieldImages, Message: err.Error()})
	}

	if len(verr.Fields) > 0 {
		return types.HotelAttributes{}, nil, verr
	}
	return attrs, images, nil
}

// parseFacilities accepts repeated fields, the bracketed form sent by
// browsers, and comma-separated values.
func parseFacilities(form *multipart.Form) []string {
	if form == nil {
		return nil
	}
	var facilities []string
	for _, key := range []string{formFieldFacilities, formFieldFacilities + "[]"} {
		for _, raw := range form.Value[key] {
			facilities = append(facilities, parseTags(raw)...)
		}
	}
	return facilities
}

func parseImageFiles(form *multipart.Form) ([]services.Image, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[formFieldImages]
	if len(files) > services.MaxImages {
		return nil, fmt.Errorf("at most %d images are allowed", services.MaxImages)
	}

	images := make([]services.Image, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, errors.New("failed to read upload")
		}
		data, err := readFileLimited(file, services.MaxImageSize)
		_ = file.Close()
		if err != nil {
			return nil, err
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		images = append(images, services.Image{
			Filename:    fileHeader.Filename,
			ContentType: contentType,
			Content:     data,
		})
	}
	return images, nil
}

func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}
