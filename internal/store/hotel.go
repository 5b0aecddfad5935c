package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelbook/apiserver/types"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("store")

// HotelRepository handles persistence for hotel listings.
// Owner-scoped operations filter by (id, owner) so a listing owned by someone
// else is indistinguishable from a missing one.
type HotelRepository struct {
	db *sql.DB
}

func NewHotelRepository(db *sql.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

const hotelColumns = `id, owner_id, name, city, country, description, type, price_per_night,
		star_rating, adult_count, child_count, facilities, image_urls, last_updated, seq`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(row rowScanner) (types.Hotel, error) {
	var hotel types.Hotel
	err := row.Scan(
		&hotel.ID,
		&hotel.OwnerID,
		&hotel.Name,
		&hotel.City,
		&hotel.Country,
		&hotel.Description,
		&hotel.Type,
		&hotel.PricePerNight,
		&hotel.StarRating,
		&hotel.AdultCount,
		&hotel.ChildCount,
		pq.Array(&hotel.Facilities),
		pq.Array(&hotel.ImageURLs),
		&hotel.LastUpdated,
		&hotel.Seq,
	)
	return hotel, err
}

func (r *HotelRepository) Search(ctx context.Context, q types.SearchQuery, offset, limit int) ([]types.Hotel, int, error) {
	ctx, span := tracer.Start(ctx, "HotelRepository.Search")
	defer span.End()

	if offset < 0 {
		return nil, 0, fmt.Errorf("invalid search offset %d", offset)
	}
	if limit < 1 {
		limit = types.SearchPageSize
	}

	where, args := buildSearchFilter(q)

	countQuery := `SELECT COUNT(1) FROM hotels` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	span.SetAttributes(attribute.Int("search.total", total))
	if total == 0 || offset >= total {
		return []types.Hotel{}, total, nil
	}

	listArgs := append(append([]any{}, args...), offset, limit)
	listQuery := fmt.Sprintf(`SELECT %s FROM hotels%s ORDER BY %s OFFSET $%d LIMIT $%d`,
		hotelColumns, where, searchOrder(q.Sort), len(args)+1, len(args)+2)

	hotels, err := r.queryHotels(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return hotels, total, nil
}

func (r *HotelRepository) List(ctx context.Context) ([]types.Hotel, error) {
	const query = `SELECT ` + hotelColumns + ` FROM hotels ORDER BY seq`
	return r.queryHotels(ctx, query)
}

func (r *HotelRepository) ListByOwner(ctx context.Context, ownerID string) ([]types.Hotel, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return []types.Hotel{}, nil
	}
	const query = `SELECT ` + hotelColumns + ` FROM hotels WHERE owner_id = $1 ORDER BY seq`
	return r.queryHotels(ctx, query, ownerID)
}

func (r *HotelRepository) Get(ctx context.Context, id string) (types.Hotel, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Hotel{}, ErrNotFound
	}
	const query = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = $1`
	return r.queryHotel(ctx, query, id)
}

func (r *HotelRepository) GetOwned(ctx context.Context, ownerID, id string) (types.Hotel, error) {
	if !validIDs(ownerID, id) {
		return types.Hotel{}, ErrNotFound
	}
	const query = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = $1 AND owner_id = $2`
	return r.queryHotel(ctx, query, id, ownerID)
}

func (r *HotelRepository) Create(ctx context.Context, hotel types.Hotel) (types.Hotel, error) {
	ctx, span := tracer.Start(ctx, "HotelRepository.Create")
	defer span.End()

	hotel.ID = uuid.NewString()
	if hotel.LastUpdated.IsZero() {
		hotel.LastUpdated = time.Now().UTC()
	}

	const query = `
		INSERT INTO hotels (id, owner_id, name, city, country, description, type, price_per_night,
			star_rating, adult_count, child_count, facilities, image_urls, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING seq`
	err := r.db.QueryRowContext(
		ctx,
		query,
		hotel.ID,
		hotel.OwnerID,
		hotel.Name,
		hotel.City,
		hotel.Country,
		hotel.Description,
		hotel.Type,
		hotel.PricePerNight,
		hotel.StarRating,
		hotel.AdultCount,
		hotel.ChildCount,
		pq.Array(nonNil(hotel.Facilities)),
		pq.Array(nonNil(hotel.ImageURLs)),
		hotel.LastUpdated,
	).Scan(&hotel.Seq)
	if err != nil {
		return types.Hotel{}, fmt.Errorf("db error: %w", err)
	}
	return hotel, nil
}

// Update overwrites the attributes of the listing identified by hotel.ID and
// owned by hotel.OwnerID, and prepends prependImages to its image sequence in
// the same statement.
func (r *HotelRepository) Update(ctx context.Context, hotel types.Hotel, prependImages []string) (types.Hotel, error) {
	ctx, span := tracer.Start(ctx, "HotelRepository.Update")
	defer span.End()

	if !validIDs(hotel.OwnerID, hotel.ID) {
		return types.Hotel{}, ErrNotFound
	}
	if hotel.LastUpdated.IsZero() {
		hotel.LastUpdated = time.Now().UTC()
	}

	const query = `
		UPDATE hotels
		SET name = $1,
			city = $2,
			country = $3,
			description = $4,
			type = $5,
			price_per_night = $6,
			star_rating = $7,
			adult_count = $8,
			child_count = $9,
			facilities = $10,
			image_urls = $11::text[] || image_urls,
			last_updated = $12
		WHERE id = $13 AND owner_id = $14
		RETURNING ` + hotelColumns
	return r.queryHotel(
		ctx,
		query,
		hotel.Name,
		hotel.City,
		hotel.Country,
		hotel.Description,
		hotel.Type,
		hotel.PricePerNight,
		hotel.StarRating,
		hotel.AdultCount,
		hotel.ChildCount,
		pq.Array(nonNil(hotel.Facilities)),
		pq.Array(nonNil(prependImages)),
		hotel.LastUpdated,
		hotel.ID,
		hotel.OwnerID,
	)
}

func (r *HotelRepository) Delete(ctx context.Context, ownerID, id string) error {
	if !validIDs(ownerID, id) {
		return ErrNotFound
	}
	const query = `DELETE FROM hotels WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *HotelRepository) queryHotel(ctx context.Context, query string, args ...any) (types.Hotel, error) {
	hotel, err := scanHotel(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Hotel{}, ErrNotFound
		}
		return types.Hotel{}, fmt.Errorf("db error: %w", err)
	}
	return hotel, nil
}

func (r *HotelRepository) queryHotels(ctx context.Context, query string, args ...any) ([]types.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	hotels := make([]types.Hotel, 0)
	for rows.Next() {
		hotel, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		hotels = append(hotels, hotel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return hotels, nil
}

// buildSearchFilter translates q into a WHERE clause with positional arguments.
// The clause is empty when no dimension is active.
func buildSearchFilter(q types.SearchQuery) (string, []any) {
	var clauses []string
	var args []any

	if destination := strings.TrimSpace(q.Destination); destination != "" {
		args = append(args, "%"+escapeLike(destination)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(city ILIKE $%d OR country ILIKE $%d OR name ILIKE $%d)", n, n, n))
	}
	if len(q.Stars) > 0 {
		stars := make([]int64, 0, len(q.Stars))
		for _, star := range q.Stars {
			stars = append(stars, int64(star))
		}
		args = append(args, pq.Array(stars))
		clauses = append(clauses, fmt.Sprintf("star_rating = ANY($%d::int[])", len(args)))
	}
	if len(q.Types) > 0 {
		args = append(args, pq.Array(q.Types))
		clauses = append(clauses, fmt.Sprintf("type = ANY($%d::text[])", len(args)))
	}
	if len(q.Facilities) > 0 {
		args = append(args, pq.Array(q.Facilities))
		clauses = append(clauses, fmt.Sprintf("facilities && $%d::text[]", len(args)))
	}
	if q.MaxPrice != nil {
		args = append(args, *q.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price_per_night <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func searchOrder(sort types.SortOption) string {
	switch sort {
	case types.SortStarRating:
		return "star_rating DESC, seq ASC"
	case types.SortPriceAsc:
		return "price_per_night ASC, seq ASC"
	case types.SortPriceDesc:
		return "price_per_night DESC, seq ASC"
	default:
		return "seq ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
