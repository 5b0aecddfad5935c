// Package client is a Go client for the hotelbook API. It keeps the session
// cookie in a jar, so one API value represents one signed-in browser.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hotelbook/apiserver/internal/catalog"
	"github.com/hotelbook/apiserver/types"
)

const defaultTimeout = 30 * time.Second

var (
	ErrInvalidInput    = errors.New("please check the form and try again")
	ErrUnauthenticated = errors.New("please sign in to continue")
	ErrNotFound        = errors.New("not found")
	ErrServer          = errors.New("something went wrong, please try again later")
	ErrUnreachable     = errors.New("could not reach the server")
)

// FieldError is one rejected input field reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is returned for every non-2xx response. Message is safe to show to
// end users: for bad requests it is the server's validation message, for all
// other statuses it is a fixed text per category.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	return e.Message
}

// Is matches the category sentinel for the response status.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrServer:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// API is a typed client for every hotelbook endpoint.
type API struct {
	baseURL string
	http    *http.Client
}

type Option func(*API)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when the client has none.
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.http = c }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*API, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	a := &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		a.http.Jar = jar
	}
	return a, nil
}

// RegisterRequest is the payload of Register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type authResponse struct {
	UserID string `json:"userId"`
}

// Register creates an account and signs it in. It returns the new user id.
func (a *API) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp authResponse
	err := a.doJSON(ctx, http.MethodPost, "/auth/register", req, &resp)
	return resp.UserID, err
}

// Login signs in and returns the user id.
func (a *API) Login(ctx context.Context, email, password string) (string, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	err := a.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp)
	return resp.UserID, err
}

// Validate returns the user behind the current session.
func (a *API) Validate(ctx context.Context) (string, error) {
	var resp authResponse
	err := a.doJSON(ctx, http.MethodGet, "/auth/validate", nil, &resp)
	return resp.UserID, err
}

// Logout discards the session cookie.
func (a *API) Logout(ctx context.Context) error {
	return a.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// SearchHotels runs a hotel search.
func (a *API) SearchHotels(ctx context.Context, q types.SearchQuery) (types.SearchPage, error) {
	var page types.SearchPage
	err := a.doJSON(ctx, http.MethodGet, "/hotels/search?"+EncodeSearchQuery(q).Encode(), nil, &page)
	return page, err
}

func (a *API) Hotels(ctx context.Context) ([]types.Hotel, error) {
	var hotels []types.Hotel
	err := a.doJSON(ctx, http.MethodGet, "/hotels", nil, &hotels)
	return hotels, err
}

func (a *API) Hotel(ctx context.Context, id string) (types.Hotel, error) {
	var hotel types.Hotel
	err := a.doJSON(ctx, http.MethodGet, "/hotels/"+url.PathEscape(id), nil, &hotel)
	return hotel, err
}

// Options returns the filter choices offered by the server.
func (a *API) Options(ctx context.Context) (catalog.Catalog, error) {
	var c catalog.Catalog
	err := a.doJSON(ctx, http.MethodGet, "/hotels/options", nil, &c)
	return c, err
}

func (a *API) CreateBooking(ctx context.Context, hotelID string, req types.BookingRequest) (types.Booking, error) {
	var booking types.Booking
	err := a.doJSON(ctx, http.MethodPost, "/hotels/"+url.PathEscape(hotelID)+"/bookings", req, &booking)
	return booking, err
}

func (a *API) MyBookings(ctx context.Context) ([]types.UserBooking, error) {
	var bookings []types.UserBooking
	err := a.doJSON(ctx, http.MethodGet, "/my-bookings", nil, &bookings)
	return bookings, err
}

func (a *API) MyHotels(ctx context.Context) ([]types.Hotel, error) {
	var hotels []types.Hotel
	err := a.doJSON(ctx, http.MethodGet, "/my-hotels", nil, &hotels)
	return hotels, err
}

func (a *API) MyHotel(ctx context.Context, id string) (types.Hotel, error) {
	var hotel types.Hotel
	err := a.doJSON(ctx, http.MethodGet, "/my-hotels/"+url.PathEscape(id), nil, &hotel)
	return hotel, err
}

// Image is a file attached to a listing form.
type Image struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ListingForm is the multipart payload of CreateHotel and UpdateHotel.
type ListingForm struct {
	types.HotelAttributes
	Images []Image
}

func (a *API) CreateHotel(ctx context.Context, form ListingForm) (types.Hotel, error) {
	var hotel types.Hotel
	err := a.doMultipart(ctx, http.MethodPost, "/my-hotels", form, &hotel)
	return hotel, err
}

// UpdateHotel replaces the listing attributes. Images in form are added in
// front of the existing ones.
func (a *API) UpdateHotel(ctx context.Context, id string, form ListingForm) (types.Hotel, error) {
	var hotel types.Hotel
	err := a.doMultipart(ctx, http.MethodPut, "/my-hotels/"+url.PathEscape(id), form, &hotel)
	return hotel, err
}

func (a *API) DeleteHotel(ctx context.Context, id string) error {
	return a.doJSON(ctx, http.MethodDelete, "/my-hotels/"+url.PathEscape(id), nil, nil)
}

// EncodeSearchQuery renders q as the query string understood by the search
// endpoint. Empty dimensions are omitted.
func EncodeSearchQuery(q types.SearchQuery) url.Values {
	values := url.Values{}
	if q.Destination != "" {
		values.Set("destination", q.Destination)
	}
	for _, star := range q.Stars {
		values.Add("stars", strconv.Itoa(star))
	}
	for _, t := range q.Types {
		values.Add("types", t)
	}
	for _, f := range q.Facilities {
		values.Add("facilities", f)
	}
	if q.MaxPrice != nil {
		values.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.Sort != "" {
		values.Set("sortOption", string(q.Sort))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

func (a *API) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.do(req, out)
}

func (a *API) doMultipart(ctx context.Context, method, path string, form ListingForm, out any) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := [][2]string{
		{"name", form.Name},
		{"city", form.City},
		{"country", form.Country},
		{"description", form.Description},
		{"type", form.Type},
		{"pricePerNight", strconv.FormatFloat(form.PricePerNight, 'f', -1, 64)},
		{"starRating", strconv.Itoa(form.StarRating)},
		{"adultCount", strconv.Itoa(form.AdultCount)},
		{"childCount", strconv.Itoa(form.ChildCount)},
	}
	for _, facility := range form.Facilities {
		fields = append(fields, [2]string{"facilities", facility})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}

	for _, image := range form.Images {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="imageFiles"; filename=%q`, image.Filename))
		header.Set("Content-Type", image.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := part.Write(image.Content); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return a.do(req, out)
}

func (a *API) do(req *http.Request, out any) error {
	resp, err := a.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		var payload struct {
			Error  string       `json:"error"`
			Fields []FieldError `json:"fields"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		} else {
			apiErr.Message = ErrInvalidInput.Error()
		}
	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.Message = ErrUnauthenticated.Error()
	case resp.StatusCode == http.StatusNotFound:
		apiErr.Message = ErrNotFound.Error()
	case resp.StatusCode >= http.StatusInternalServerError:
		apiErr.Message = ErrServer.Error()
	default:
		apiErr.Message = fmt.Sprintf("unexpected response (%d)", resp.StatusCode)
	}
	return apiErr
}
