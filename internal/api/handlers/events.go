package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mb-events/server/internal/api/middleware"
	"github.com/mb-events/server/internal/api/respond"
	"github.com/mb-events/server/internal/domain/events"
	"github.com/mb-events/server/internal/domain/ids"
	"github.com/mb-events/server/internal/metrics"
)

// maxCreateBody bounds the multipart body of an event create request.
const maxCreateBody = 10 << 20

// ImageUploader pushes an event poster to the media host and returns its
// durable URL.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

type EventsHandler struct {
	Service  *events.Service
	Uploader ImageUploader
}

func NewEventsHandler(service *events.Service, uploader ImageUploader) *EventsHandler {
	return &EventsHandler{Service: service, Uploader: uploader}
}

type priceJSON struct {
	Free    bool    `json:"free"`
	Regular float64 `json:"regular"`
	Vip     float64 `json:"vip"`
}

type hostJSON struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

type eventJSON struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Price       priceJSON `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	HostedBy    hostJSON  `json:"hostedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type listingResponse struct {
	Success     bool        `json:"success"`
	CurrentPage int         `json:"currentPage"`
	TotalPages  int         `json:"totalPages"`
	TotalEvents int         `json:"totalEvents"`
	NumOfEvents int         `json:"numOfEvents"`
	Events      []eventJSON `json:"events"`
}

type feedResponse struct {
	Success bool        `json:"success"`
	Events  []eventJSON `json:"events"`
}

type eventResponse struct {
	Success       bool        `json:"success"`
	Event         eventJSON   `json:"event"`
	SimilarEvents []eventJSON `json:"similarEvents,omitempty"`
}

func toEventJSON(event events.Event) eventJSON {
	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}
	return eventJSON{
		ID:          event.ID,
		Title:       event.Title,
		Date:        event.Date,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		Location:    event.Location,
		Category:    event.Category,
		Description: event.Description,
		Tags:        tags,
		Price:       priceJSON(event.Price),
		ImageURL:    event.ImageURL,
		HostedBy:    hostJSON(event.HostedBy),
		CreatedAt:   event.CreatedAt,
	}
}

func toEventList(items []events.Event) []eventJSON {
	out := make([]eventJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toEventJSON(item))
	}
	return out
}

func toListingResponse(listing events.Listing) listingResponse {
	return listingResponse{
		Success:     true,
		CurrentPage: listing.CurrentPage,
		TotalPages:  listing.TotalPages,
		TotalEvents: listing.TotalEvents,
		NumOfEvents: listing.NumOfEvents,
		Events:      toEventList(listing.Events),
	}
}

// List serves the general browse listing with filters and pagination.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := events.ParseFilters(query)
	page := events.ParsePage(query, events.PageSizeGeneral)

	listing, err := h.Service.List(r.Context(), filters, page)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "could not load events", err)
		return
	}
	respond.JSON(w, http.StatusOK, toListingResponse(listing))
}

// Upcoming serves the next six upcoming events, soonest first.
func (h *EventsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Upcoming(r.Context())
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "could not load events", err)
		return
	}
	respond.JSON(w, http.StatusOK, feedResponse{Success: true, Events: toEventList(items)})
}

// Free serves the next six free upcoming events, soonest first.
func (h *EventsHandler) Free(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.FreeUpcoming(r.Context())
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "could not load events", err)
		return
	}
	respond.JSON(w, http.StatusOK, feedResponse{Success: true, Events: toEventList(items)})
}

// Get serves one event plus up to three similar upcoming events.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if err := ids.ValidateULID(id); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid event id", err)
		return
	}

	event, similar, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			respond.Error(w, r, http.StatusNotFound, "event not found", err)
			return
		}
		respond.Error(w, r, http.StatusInternalServerError, "could not load event", err)
		return
	}

	respond.JSON(w, http.StatusOK, eventResponse{
		Success:       true,
		Event:         toEventJSON(*event),
		SimilarEvents: toEventList(similar),
	})
}

// Create accepts a multipart form with the event fields plus the poster
// image, uploads the image, and persists the event for the caller.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)
	if err := r.ParseMultipartForm(maxCreateBody); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	params, err := h.parseCreateForm(r, identity.UserID)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	event, err := h.Service.Create(r.Context(), params)
	if err != nil {
		if errors.Is(err, events.ErrInvalidEvent) {
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
			return
		}
		respond.Error(w, r, http.StatusInternalServerError, "could not create event", err)
		return
	}

	metrics.EventsCreatedTotal.Inc()
	respond.JSON(w, http.StatusCreated, eventResponse{Success: true, Event: toEventJSON(*event)})
}

func (h *EventsHandler) parseCreateForm(r *http.Request, hostID string) (events.CreateParams, error) {
	params := events.CreateParams{
		Title:       strings.TrimSpace(r.FormValue("title")),
		StartTime:   strings.TrimSpace(r.FormValue("startTime")),
		EndTime:     strings.TrimSpace(r.FormValue("endTime")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Tags:        splitCommaList(r.FormValue("tags")),
		HostID:      hostID,
	}

	// Virtual events carry the online sentinel instead of a venue.
	if online, _ := strconv.ParseBool(r.FormValue("online")); online {
		params.Location = events.LocationOnline
	}

	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return events.CreateParams{}, errors.New("invalid date: use YYYY-MM-DD or RFC 3339")
		}
		params.Date = date
	}

	params.Price.Free, _ = strconv.ParseBool(r.FormValue("free"))
	if !params.Price.Free {
		var err error
		if params.Price.Regular, err = parsePriceField(r.FormValue("regularPrice")); err != nil {
			return events.CreateParams{}, errors.New("invalid regular ticket price")
		}
		if params.Price.Vip, err = parsePriceField(r.FormValue("vipPrice")); err != nil {
			return events.CreateParams{}, errors.New("invalid vip ticket price")
		}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			// Leave ImageURL empty; validation reports the missing field.
			return params, nil
		}
		return events.CreateParams{}, errors.New("invalid image upload")
	}
	defer file.Close()

	url, err := h.Uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		return events.CreateParams{}, errors.New("image upload failed")
	}
	params.ImageURL = url

	return params, nil
}

// Hosted serves the caller's own events, newest-created first.
func (h *EventsHandler) Hosted(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	page := events.ParsePage(r.URL.Query(), events.PageSizeUserScoped)
	listing, err := h.Service.Hosted(r.Context(), identity.UserID, page)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "could not load events", err)
		return
	}
	respond.JSON(w, http.StatusOK, toListingResponse(listing))
}

// Pay registers the caller for an event.
func (h *EventsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if err := ids.ValidateULID(id); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid event id", err)
		return
	}

	if err := h.Service.Pay(r.Context(), identity.UserID, id); err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			respond.Error(w, r, http.StatusNotFound, "event not found", err)
		case errors.Is(err, events.ErrAlreadyAttending):
			respond.Error(w, r, http.StatusConflict, "event already added to your events", err)
		default:
			respond.Error(w, r, http.StatusInternalServerError, "could not record attendance", err)
		}
		return
	}

	metrics.AttendanceRecordedTotal.Inc()
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "event added to your events",
	})
}

// Previous serves the caller's attended events that already happened.
func (h *EventsHandler) Previous(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	page := events.ParsePage(r.URL.Query(), events.PageSizeUserScoped)
	listing, err := h.Service.Previous(r.Context(), identity.UserID, page)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "could not load events", err)
		return
	}
	respond.JSON(w, http.StatusOK, toListingResponse(listing))
}

// Attending serves the caller's attended events still to come.
func (h *EventsHandler) Attending(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	page := events.ParsePage(r.URL.Query(), events.PageSizeUserScoped)
	listing, err := h.Service.Attending(r.Context(), identity.UserID, page)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "could not load events", err)
		return
	}
	respond.JSON(w, http.StatusOK, toListingResponse(listing))
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseDate(raw string) (time.Time, error) {
	if date, err := time.Parse(time.RFC3339, raw); err == nil {
		return date, nil
	}
	return time.Parse("2006-01-02", raw)
}

func parsePriceField(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
