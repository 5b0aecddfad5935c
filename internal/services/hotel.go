package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/hotelbook/apiserver/internal/metrics"
	"github.com/hotelbook/apiserver/internal/validator"
	"github.com/hotelbook/apiserver/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxImages is the most images accepted by one create or update.
	MaxImages = 6
	// MaxImageSize is the per-image upload limit in bytes.
	MaxImageSize = 5 << 20
)

var tracer = otel.Tracer("services")

// HotelRepository defines persistence operations for hotel listings.
// Owner-scoped methods return store.ErrNotFound for listings owned by
// someone else.
type HotelRepository interface {
	Search(ctx context.Context, q types.SearchQuery, offset, limit int) ([]types.Hotel, int, error)
	List(ctx context.Context) ([]types.Hotel, error)
	ListByOwner(ctx context.Context, ownerID string) ([]types.Hotel, error)
	Get(ctx context.Context, id string) (types.Hotel, error)
	GetOwned(ctx context.Context, ownerID, id string) (types.Hotel, error)
	Create(ctx context.Context, hotel types.Hotel) (types.Hotel, error)
	Update(ctx context.Context, hotel types.Hotel, prependImages []string) (types.Hotel, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// MediaHost stores image bytes and returns a permanent public URL.
type MediaHost interface {
	Upload(ctx context.Context, content []byte, contentType string) (string, error)
}

// EventPublisher announces persisted listing changes.
type EventPublisher interface {
	PublishHotelEvent(ctx context.Context, event types.HotelEvent) error
}

// SearchCache stores search pages per generation. Invalidate moves to a new
// generation, dropping every cached page. A search reads the generation once
// and uses it for both Get and Set, so a page computed before a write is never
// stored under the generation that write started.
type SearchCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64, q types.SearchQuery) (types.SearchPage, bool, error)
	Set(ctx context.Context, generation int64, q types.SearchQuery, page types.SearchPage) error
	Invalidate(ctx context.Context) error
}

// Image is one uploaded listing image.
type Image struct {
	Filename    string
	ContentType string
	Content     []byte
}

// HotelService encapsulates listing search and owner management.
type HotelService struct {
	repo   HotelRepository
	media  MediaHost
	events EventPublisher
	cache  SearchCache
	now    func() time.Time
}

type HotelOption func(*HotelService)

func WithEventPublisher(events EventPublisher) HotelOption {
	return func(s *HotelService) { s.events = events }
}

func WithSearchCache(cache SearchCache) HotelOption {
	return func(s *HotelService) { s.cache = cache }
}

func WithClock(now func() time.Time) HotelOption {
	return func(s *HotelService) { s.now = now }
}

func NewHotelService(repo HotelRepository, media MediaHost, opts ...HotelOption) *HotelService {
	s := &HotelService{
		repo:  repo,
		media: media,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns one page of listings matching q.
func (s *HotelService) Search(ctx context.Context, q types.SearchQuery) (types.SearchPage, error) {
	ctx, span := tracer.Start(ctx, "HotelService.Search")
	defer span.End()

	if q.Page < 1 {
		q.Page = types.DefaultSearchPage
	}
	if !q.Sort.Known() {
		q.Sort = types.SortDefault
	}
	span.SetAttributes(
		attribute.String("search.destination", q.Destination),
		attribute.String("search.sort", string(q.Sort)),
		attribute.Int("search.page", q.Page),
	)

	if q.MaxPrice != nil && *q.MaxPrice <= 0 {
		return emptyPage(q.Page), nil
	}

	var (
		generation int64
		useCache   bool
	)
	if s.cache != nil {
		gen, err := s.cache.Generation(ctx)
		if err != nil {
			slog.WarnContext(ctx, "search cache read failed", "error", err)
		} else {
			generation, useCache = gen, true
			page, ok, err := s.cache.Get(ctx, generation, q)
			if err != nil {
				slog.WarnContext(ctx, "search cache read failed", "error", err)
			} else if ok {
				span.SetAttributes(attribute.Bool("search.cache_hit", true))
				return page, nil
			}
		}
	}

	offset := searchOffset(q.Page)
	hotels, total, err := s.repo.Search(ctx, q, offset, types.SearchPageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return types.SearchPage{}, fmt.Errorf("search hotels: %w", err)
	}
	metrics.ObserveSearch(total)

	page := types.SearchPage{
		Data: hotels,
		Pagination: types.Pagination{
			Total: total,
			Page:  q.Page,
			Pages: types.TotalPages(total, types.SearchPageSize),
		},
	}
	if page.Data == nil {
		page.Data = []types.Hotel{}
	}

	if useCache {
		if err := s.cache.Set(ctx, generation, q, page); err != nil {
			slog.WarnContext(ctx, "search cache write failed", "error", err)
		}
	}
	return page, nil
}

func emptyPage(page int) types.SearchPage {
	return types.SearchPage{
		Data:       []types.Hotel{},
		Pagination: types.Pagination{Total: 0, Page: page, Pages: 0},
	}
}

// List returns every listing in insertion order.
func (s *HotelService) List(ctx context.Context) ([]types.Hotel, error) {
	return s.repo.List(ctx)
}

func (s *HotelService) Get(ctx context.Context, id string) (types.Hotel, error) {
	return s.repo.Get(ctx, id)
}

func (s *HotelService) ListByOwner(ctx context.Context, ownerID string) ([]types.Hotel, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *HotelService) GetOwned(ctx context.Context, ownerID, id string) (types.Hotel, error) {
	return s.repo.GetOwned(ctx, ownerID, id)
}

// Create validates the listing, uploads its images concurrently and persists
// it with the image URLs in submission order.
func (s *HotelService) Create(ctx context.Context, ownerID string, attrs types.HotelAttributes, images []Image) (types.Hotel, error) {
	ctx, span := tracer.Start(ctx, "HotelService.Create",
		trace.WithAttributes(attribute.String("owner.id", ownerID), attribute.Int("images", len(images))))
	defer span.End()

	attrs = normalizeAttributes(attrs)
	if err := validateListing(attrs, images, 1); err != nil {
		return types.Hotel{}, err
	}

	urls, err := s.uploadImages(ctx, images)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return types.Hotel{}, err
	}

	hotel, err := s.repo.Create(ctx, types.Hotel{
		OwnerID:         ownerID,
		HotelAttributes: attrs,
		ImageURLs:       urls,
		LastUpdated:     s.now(),
	})
	if err != nil {
		return types.Hotel{}, fmt.Errorf("create hotel: %w", err)
	}
	span.SetAttributes(attribute.String("hotel.id", hotel.ID))

	s.afterWrite(ctx, types.HotelCreated, hotel)
	return hotel, nil
}

// Update replaces the listing attributes and prepends newly uploaded images
// to the existing sequence. Ownership is checked before anything is uploaded.
func (s *HotelService) Update(ctx context.Context, ownerID, id string, attrs types.HotelAttributes, images []Image) (types.Hotel, error) {
	ctx, span := tracer.Start(ctx, "HotelService.Update",
		trace.WithAttributes(attribute.String("owner.id", ownerID), attribute.Int("images", len(images))))
	defer span.End()
	span.SetAttributes(attribute.String("hotel.id", id))

	attrs = normalizeAttributes(attrs)
	if err := validateListing(attrs, images, 0); err != nil {
		return types.Hotel{}, err
	}

	if _, err := s.repo.GetOwned(ctx, ownerID, id); err != nil {
		return types.Hotel{}, err
	}

	urls, err := s.uploadImages(ctx, images)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return types.Hotel{}, err
	}

	hotel, err := s.repo.Update(ctx, types.Hotel{
		ID:              id,
		OwnerID:         ownerID,
		HotelAttributes: attrs,
		LastUpdated:     s.now(),
	}, urls)
	if err != nil {
		return types.Hotel{}, err
	}

	s.afterWrite(ctx, types.HotelUpdated, hotel)
	return hotel, nil
}

// Delete removes an owned listing. Hosted images are left in place.
func (s *HotelService) Delete(ctx context.Context, ownerID, id string) error {
	ctx, span := tracer.Start(ctx, "HotelService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("hotel.id", id))

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, types.HotelDeleted, types.Hotel{ID: id, OwnerID: ownerID})
	return nil
}

// uploadImages sends every image to the media host concurrently. The first
// failure cancels the remaining uploads and fails the whole call.
func (s *HotelService) uploadImages(ctx context.Context, images []Image) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	urls := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	for i, image := range images {
		g.Go(func() error {
			url, err := s.media.Upload(gctx, image.Content, image.ContentType)
			metrics.RecordUpload(err)
			if err != nil {
				return fmt.Errorf("upload image %d: %w", i+1, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// afterWrite publishes the change and invalidates cached search pages.
// Both are best effort; the write has already been persisted.
func (s *HotelService) afterWrite(ctx context.Context, eventType types.HotelEventType, hotel types.Hotel) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.WarnContext(ctx, "search cache invalidation failed", "error", err)
		}
	}
	if s.events == nil {
		return
	}
	err := s.events.PublishHotelEvent(ctx, types.HotelEvent{
		Type:       eventType,
		HotelID:    hotel.ID,
		OwnerID:    hotel.OwnerID,
		OccurredAt: s.now(),
	})
	metrics.RecordEvent(string(eventType), err)
	if err != nil {
		slog.WarnContext(ctx, "publish hotel event failed", "type", eventType, "hotel_id", hotel.ID, "error", err)
	}
}

func normalizeAttributes(attrs types.HotelAttributes) types.HotelAttributes {
	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.City = strings.TrimSpace(attrs.City)
	attrs.Country = strings.TrimSpace(attrs.Country)
	attrs.Description = strings.TrimSpace(attrs.Description)
	attrs.Type = strings.TrimSpace(attrs.Type)

	facilities := make([]string, 0, len(attrs.Facilities))
	for _, facility := range attrs.Facilities {
		facility = strings.TrimSpace(facility)
		if facility != "" && !slices.Contains(facilities, facility) {
			facilities = append(facilities, facility)
		}
	}
	attrs.Facilities = facilities
	return attrs
}

// searchOffset returns the row offset of page. Pages whose offset does not
// fit an int map to math.MaxInt, which is past any result set.
func searchOffset(page int) int {
	if page-1 > math.MaxInt/types.SearchPageSize {
		return math.MaxInt
	}
	return (page - 1) * types.SearchPageSize
}

func validateListing(attrs types.HotelAttributes, images []Image, minImages int) error {
	verr := &ValidationError{}
	if err := fromValidator(validator.GetValidator().Struct(attrs)); err != nil {
		fieldErr, ok := err.(*ValidationError)
		if !ok {
			return err
		}
		verr.Fields = append(verr.Fields, fieldErr.Fields...)
	}
	if math.IsNaN(attrs.PricePerNight) || math.IsInf(attrs.PricePerNight, 0) {
		verr.add("pricePerNight", "must be a number")
	}

	switch {
	case len(images) < minImages:
		verr.add("imageFiles", fmt.Sprintf("at least %d image is required", minImages))
	case len(images) > MaxImages:
		verr.add("imageFiles", fmt.Sprintf("at most %d images are allowed", MaxImages))
	}
	for _, image := range images {
		if !strings.HasPrefix(image.ContentType, "image/") {
			verr.add("imageFiles", "must be images")
			break
		}
		if len(image.Content) == 0 || len(image.Content) > MaxImageSize {
			verr.add("imageFiles", "must be between 1 byte and 5MB")
			break
		}
	}
	return verr.orNil()
}
