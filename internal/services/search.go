package services

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/hotelbook/apiserver/types"
)

// ParseSearchQuery reads a search request from query parameters.
//
// Multi-valued dimensions (stars, types, facilities) accept repeated keys,
// the "key[]" form, and comma separated values. An unknown sortOption falls
// back to insertion order. page defaults to 1.
func ParseSearchQuery(values url.Values) (types.SearchQuery, error) {
	q := types.SearchQuery{
		Destination: strings.TrimSpace(values.Get("destination")),
		Types:       multiValue(values, "types"),
		Facilities:  multiValue(values, "facilities"),
		Sort:        types.SortOption(strings.TrimSpace(values.Get("sortOption"))),
		Page:        types.DefaultSearchPage,
	}
	if !q.Sort.Known() {
		q.Sort = types.SortDefault
	}

	verr := &ValidationError{}

	for _, raw := range multiValue(values, "stars") {
		star, err := strconv.Atoi(raw)
		if err != nil || star < types.MinStarRating || star > types.MaxStarRating {
			verr.add("stars", "must be integers between 1 and 5")
			break
		}
		if !slices.Contains(q.Stars, star) {
			q.Stars = append(q.Stars, star)
		}
	}

	if raw := strings.TrimSpace(values.Get("maxPrice")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			verr.add("maxPrice", "must be a number")
		} else {
			q.MaxPrice = &price
		}
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			verr.add("page", "must be a positive integer")
		} else {
			q.Page = page
		}
	}

	if err := verr.orNil(); err != nil {
		return types.SearchQuery{}, err
	}
	return q, nil
}

func multiValue(values url.Values, key string) []string {
	raw := append(slices.Clone(values[key]), values[key+"[]"]...)
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part != "" && !slices.Contains(out, part) {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
