package events

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Per-endpoint page sizes and the curated feed cap.
const (
	PageSizeGeneral    = 10
	PageSizeUserScoped = 3
	FeedSize           = 6
)

// ParseFilters builds the listing filter value from request query parameters.
// Every parameter is optional and malformed input degrades to "no filter";
// listing requests never fail on bad filter input.
func ParseFilters(values url.Values) Filters {
	filters := Filters{
		Location:   strings.TrimSpace(values.Get("location")),
		Category:   strings.TrimSpace(values.Get("category")),
		SearchTerm: strings.TrimSpace(values.Get("searchTerm")),
	}

	if values.Has("tag") {
		filters.TagFilter = true
		filters.Tags = splitTags(values.Get("tag"))
	}

	switch price := strings.TrimSpace(values.Get("price")); {
	case price == "":
		filters.Price = PriceAny
	case price == "free":
		filters.Price = PriceFree
	default:
		// Any other non-empty value means "not free".
		filters.Price = PricePaid
	}

	return filters
}

// ParsePage reads the page number, falling back to page 1 on absent,
// non-numeric, or non-positive input.
func ParsePage(values url.Values, size int) Page {
	number := 1
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			number = parsed
		}
	}
	return Page{Number: number, Size: size}
}

func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// StartOfDay truncates t to midnight in UTC, the cutoff used by the general
// listing and the curated feeds.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
