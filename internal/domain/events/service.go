package events

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const similarLimit = 3

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List runs the general listing: the caller's filters plus the implicit
// from-start-of-today cutoff, newest-created first.
func (s *Service) List(ctx context.Context, filters Filters, page Page) (Listing, error) {
	from := StartOfDay(s.now())
	filters.From = &from

	items, total, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return Listing{}, err
	}
	return NewListing(items, total, page), nil
}

// Upcoming returns the next events from today onward, soonest first.
func (s *Service) Upcoming(ctx context.Context) ([]Event, error) {
	from := StartOfDay(s.now())
	return s.repo.Feed(ctx, Filters{From: &from}, FeedSize)
}

// FreeUpcoming returns the next free events from today onward, soonest first.
func (s *Service) FreeUpcoming(ctx context.Context) ([]Event, error) {
	from := StartOfDay(s.now())
	return s.repo.Feed(ctx, Filters{From: &from, Price: PriceFree}, FeedSize)
}

// Get returns one event plus up to three other future events in the same
// category, newest-created first.
func (s *Service) Get(ctx context.Context, id string) (*Event, []Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	similar, err := s.repo.Similar(ctx, event.ID, event.Category, StartOfDay(s.now()), similarLimit)
	if err != nil {
		return nil, nil, err
	}
	return event, similar, nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Event, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, params)
}

func (s *Service) Hosted(ctx context.Context, hostID string, page Page) (Listing, error) {
	items, total, err := s.repo.ListHosted(ctx, hostID, page)
	if err != nil {
		return Listing{}, err
	}
	return NewListing(items, total, page), nil
}

// Pay records the caller's attendance. The append is atomic in the store, so
// a concurrent duplicate submission cannot add the event twice.
func (s *Service) Pay(ctx context.Context, userID, eventID string) error {
	return s.repo.AddAttendance(ctx, userID, eventID)
}

// Previous lists the caller's attended events that have already happened,
// most recent first.
func (s *Service) Previous(ctx context.Context, userID string, page Page) (Listing, error) {
	items, total, err := s.repo.ListAttendedBefore(ctx, userID, s.now(), page)
	if err != nil {
		return Listing{}, err
	}
	return NewListing(items, total, page), nil
}

// Attending lists the caller's attended events still to come, soonest first.
func (s *Service) Attending(ctx context.Context, userID string, page Page) (Listing, error) {
	items, total, err := s.repo.ListAttendedFrom(ctx, userID, s.now(), page)
	if err != nil {
		return Listing{}, err
	}
	return NewListing(items, total, page), nil
}

func validateCreate(params CreateParams) error {
	var missing []string
	if strings.TrimSpace(params.Title) == "" {
		missing = append(missing, "title")
	}
	if params.Date.IsZero() {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(params.StartTime) == "" {
		missing = append(missing, "startTime")
	}
	if strings.TrimSpace(params.EndTime) == "" {
		missing = append(missing, "endTime")
	}
	if strings.TrimSpace(params.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(params.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(params.Description) == "" {
		missing = append(missing, "description")
	}
	if len(params.Tags) == 0 {
		missing = append(missing, "tags")
	}
	if strings.TrimSpace(params.ImageURL) == "" {
		missing = append(missing, "image")
	}
	if params.HostID == "" {
		missing = append(missing, "hostedBy")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidEvent, strings.Join(missing, ", "))
	}

	if !params.Price.Free && (params.Price.Regular < 0 || params.Price.Vip < 0) {
		return fmt.Errorf("%w: ticket prices must be non-negative", ErrInvalidEvent)
	}
	return nil
}
