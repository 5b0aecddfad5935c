package types

// SortOption selects the ordering of search results.
type SortOption string

const (
	// SortDefault keeps insertion order.
	SortDefault    SortOption = ""
	SortStarRating SortOption = "starRating"
	SortPriceAsc   SortOption = "pricePerNightAsc"
	SortPriceDesc  SortOption = "pricePerNightDesc"
)

const (
	// SearchPageSize is the fixed number of listings per search page.
	SearchPageSize    = 5
	DefaultSearchPage = 1
	MinStarRating     = 1
	MaxStarRating     = 5
)

// Known reports whether the option is one of the supported sort keys.
func (s SortOption) Known() bool {
	switch s {
	case SortStarRating, SortPriceAsc, SortPriceDesc:
		return true
	default:
		return false
	}
}

// SearchQuery is the structured request driving hotel search.
// Filter dimensions are AND-ed together; values inside one dimension are OR-ed.
// Empty dimensions do not filter.
type SearchQuery struct {
	// Destination is matched case-insensitively as a substring of city,
	// country or name. Blank matches everything.
	Destination string `json:"destination,omitempty"`

	Stars      []int    `json:"stars,omitempty"`
	Types      []string `json:"types,omitempty"`
	Facilities []string `json:"facilities,omitempty"`

	// MaxPrice is an inclusive ceiling on PricePerNight. Nil means no ceiling;
	// a ceiling of zero or below matches nothing.
	MaxPrice *float64 `json:"maxPrice,omitempty"`

	Sort SortOption `json:"sortOption,omitempty"`

	// Page is 1-indexed.
	Page int `json:"page"`
}

// Pagination describes the position of a page in a result set.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Data       []Hotel    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TotalPages returns ceil(total / size).
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
