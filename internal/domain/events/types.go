package events

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("event not found")
	ErrAlreadyAttending = errors.New("event already added to your events")
	ErrInvalidEvent     = errors.New("invalid event")
)

// LocationOnline is the sentinel location for virtual events.
const LocationOnline = "online"

// Price is free, or carries both tiers.
type Price struct {
	Free    bool    `json:"free"`
	Regular float64 `json:"regular"`
	Vip     float64 `json:"vip"`
}

// Host is the event creator, resolved to display name only.
type Host struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

type Event struct {
	ID          string
	Title       string
	Date        time.Time
	StartTime   string
	EndTime     string
	Location    string
	Category    string
	Description string
	Tags        []string
	Price       Price
	ImageURL    string
	HostedBy    Host
	CreatedAt   time.Time
}

type CreateParams struct {
	Title       string
	Date        time.Time
	StartTime   string
	EndTime     string
	Location    string
	Category    string
	Description string
	Tags        []string
	Price       Price
	ImageURL    string
	HostID      string
}

// PriceFilter is tri-state: unset, free only, or paid only.
type PriceFilter int

const (
	PriceAny PriceFilter = iota
	PriceFree
	PricePaid
)

// Filters is an immutable description of one listing request. It is built
// once by ParseFilters and compiled into a single query by the store.
type Filters struct {
	Location   string
	Category   string
	SearchTerm string
	// Tags holds the parsed tag list. TagFilter records that the tag
	// parameter was present at all: a present-but-empty list must match
	// nothing rather than everything.
	Tags      []string
	TagFilter bool
	Price     PriceFilter
	// From restricts results to events on or after this instant. Nil means
	// no temporal restriction (host-scoped and detail lookups).
	From *time.Time
}

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Listing is the paginated result envelope for event listings.
type Listing struct {
	CurrentPage int
	TotalPages  int
	TotalEvents int
	NumOfEvents int
	Events      []Event
}

// NewListing shapes a page of results into the listing envelope.
func NewListing(items []Event, total int, page Page) Listing {
	if items == nil {
		items = []Event{}
	}
	totalPages := 0
	if page.Size > 0 {
		totalPages = (total + page.Size - 1) / page.Size
	}
	return Listing{
		CurrentPage: page.Number,
		TotalPages:  totalPages,
		TotalEvents: total,
		NumOfEvents: len(items),
		Events:      items,
	}
}

type Repository interface {
	List(ctx context.Context, filters Filters, page Page) ([]Event, int, error)
	Feed(ctx context.Context, filters Filters, limit int) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Similar(ctx context.Context, excludeID, category string, from time.Time, limit int) ([]Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	ListHosted(ctx context.Context, hostID string, page Page) ([]Event, int, error)
	AddAttendance(ctx context.Context, userID, eventID string) error
	ListAttendedBefore(ctx context.Context, userID string, cutoff time.Time, page Page) ([]Event, int, error)
	ListAttendedFrom(ctx context.Context, userID string, cutoff time.Time, page Page) ([]Event, int, error)
}
