package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mb-events/server/internal/domain/events"
	"github.com/mb-events/server/internal/domain/ids"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `e.id, e.title, e.date, e.start_time, e.end_time, e.location,
       e.category, e.description, e.tags, e.price_free, e.price_regular,
       e.price_vip, e.image_url, e.created_at, u.id, u.full_name`

// listPredicates compiles the full filter conjunction once: every optional
// filter collapses to TRUE when its parameter is unset.
//
//	$1 temporal cutoff (timestamptz, NULL = none)
//	$2 location substring, $3 category substring, $4 search term
//	$5 tag filter active, $6 tag list
//	$7 price filter ('' | 'free' | 'paid')
const listPredicates = `
       ($1::timestamptz IS NULL OR e.date >= $1::timestamptz)
   AND ($2 = '' OR e.location ILIKE '%' || $2 || '%')
   AND ($3 = '' OR e.category ILIKE '%' || $3 || '%')
   AND ($4 = '' OR e.title ILIKE '%' || $4 || '%'
               OR e.location ILIKE '%' || $4 || '%'
               OR e.category ILIKE '%' || $4 || '%')
   AND (NOT $5::boolean OR e.tags && $6::text[])
   AND ($7 = '' OR ($7 = 'free' AND e.price_free) OR ($7 = 'paid' AND NOT e.price_free))`

func (r *EventRepository) List(ctx context.Context, filters events.Filters, page events.Page) ([]events.Event, int, error) {
	q := r.queryer()
	args := filterArgs(filters)

	var total int
	countQuery := `SELECT count(*) FROM events e JOIN users u ON u.id = e.hosted_by WHERE` + listPredicates
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	listQuery := `
SELECT ` + eventColumns + `
  FROM events e
  JOIN users u ON u.id = e.hosted_by
 WHERE` + listPredicates + `
 ORDER BY e.created_at DESC, e.id DESC
 OFFSET $8 LIMIT $9`
	rows, err := q.Query(ctx, listQuery, append(args, page.Offset(), page.Size)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EventRepository) Feed(ctx context.Context, filters events.Filters, limit int) ([]events.Event, error) {
	q := r.queryer()

	query := `
SELECT ` + eventColumns + `
  FROM events e
  JOIN users u ON u.id = e.hosted_by
 WHERE ($1::timestamptz IS NULL OR e.date >= $1::timestamptz)
   AND ($2 = '' OR ($2 = 'free' AND e.price_free) OR ($2 = 'paid' AND NOT e.price_free))
 ORDER BY e.date ASC, e.id ASC
 LIMIT $3`
	rows, err := q.Query(ctx, query, timestampArg(filters.From), priceArg(filters.Price), limit)
	if err != nil {
		return nil, fmt.Errorf("feed events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	q := r.queryer()

	query := `
SELECT ` + eventColumns + `
  FROM events e
  JOIN users u ON u.id = e.hosted_by
 WHERE e.id = $1`
	event, err := scanEvent(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

func (r *EventRepository) Similar(ctx context.Context, excludeID, category string, from time.Time, limit int) ([]events.Event, error) {
	q := r.queryer()

	query := `
SELECT ` + eventColumns + `
  FROM events e
  JOIN users u ON u.id = e.hosted_by
 WHERE e.id <> $1
   AND e.category = $2
   AND e.date >= $3
 ORDER BY e.created_at DESC, e.id DESC
 LIMIT $4`
	rows, err := q.Query(ctx, query, excludeID, category, from, limit)
	if err != nil {
		return nil, fmt.Errorf("similar events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// Create inserts the event and reads it back with the host join. Both
// statements run in one transaction so the read-back sees the row the
// insert produced.
func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	if r.tx == nil {
		root, err := NewRepository(r.pool)
		if err != nil {
			return nil, err
		}
		var created *events.Event
		if err := root.WithTx(ctx, func(ctx context.Context, txRepo *Repository) error {
			var txErr error
			created, txErr = txRepo.Events().Create(ctx, params)
			return txErr
		}); err != nil {
			return nil, err
		}
		return created, nil
	}

	q := r.queryer()

	id := ids.MustNewULID()
	query := `
INSERT INTO events (id, title, date, start_time, end_time, location, category,
                    description, tags, price_free, price_regular, price_vip,
                    image_url, hosted_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := q.Exec(ctx, query,
		id,
		params.Title,
		params.Date,
		params.StartTime,
		params.EndTime,
		params.Location,
		params.Category,
		params.Description,
		params.Tags,
		params.Price.Free,
		params.Price.Regular,
		params.Price.Vip,
		params.ImageURL,
		params.HostID,
	)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *EventRepository) ListHosted(ctx context.Context, hostID string, page events.Page) ([]events.Event, int, error) {
	q := r.queryer()

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM events WHERE hosted_by = $1`, hostID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count hosted events: %w", err)
	}

	query := `
SELECT ` + eventColumns + `
  FROM events e
  JOIN users u ON u.id = e.hosted_by
 WHERE e.hosted_by = $1
 ORDER BY e.created_at DESC, e.id DESC
 OFFSET $2 LIMIT $3`
	rows, err := q.Query(ctx, query, hostID, page.Offset(), page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("list hosted events: %w", err)
	}
	defer rows.Close()

	items, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AddAttendance appends the event to the user's attended set atomically.
// A conflicting row means the event was already added.
func (r *EventRepository) AddAttendance(ctx context.Context, userID, eventID string) error {
	q := r.queryer()

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return events.ErrNotFound
	}

	tag, err := q.Exec(ctx, `
INSERT INTO event_attendance (user_id, event_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, userID, eventID)
	if err != nil {
		return fmt.Errorf("add attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrAlreadyAttending
	}
	return nil
}

func (r *EventRepository) ListAttendedBefore(ctx context.Context, userID string, cutoff time.Time, page events.Page) ([]events.Event, int, error) {
	return r.listAttended(ctx, userID, cutoff, page, true)
}

func (r *EventRepository) ListAttendedFrom(ctx context.Context, userID string, cutoff time.Time, page events.Page) ([]events.Event, int, error) {
	return r.listAttended(ctx, userID, cutoff, page, false)
}

func (r *EventRepository) listAttended(ctx context.Context, userID string, cutoff time.Time, page events.Page, past bool) ([]events.Event, int, error) {
	q := r.queryer()

	dateCond := `e.date >= $2`
	order := `e.date ASC, e.id ASC`
	if past {
		dateCond = `e.date < $2`
		order = `e.date DESC, e.id DESC`
	}

	countQuery := `
SELECT count(*)
  FROM event_attendance a
  JOIN events e ON e.id = a.event_id
 WHERE a.user_id = $1 AND ` + dateCond
	var total int
	if err := q.QueryRow(ctx, countQuery, userID, cutoff).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attended events: %w", err)
	}

	query := `
SELECT ` + eventColumns + `
  FROM event_attendance a
  JOIN events e ON e.id = a.event_id
  JOIN users u ON u.id = e.hosted_by
 WHERE a.user_id = $1 AND ` + dateCond + `
 ORDER BY ` + order + `
 OFFSET $3 LIMIT $4`
	rows, err := q.Query(ctx, query, userID, cutoff, page.Offset(), page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("list attended events: %w", err)
	}
	defer rows.Close()

	items, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func filterArgs(filters events.Filters) []any {
	tags := filters.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		timestampArg(filters.From),
		filters.Location,
		filters.Category,
		filters.SearchTerm,
		filters.TagFilter,
		tags,
		priceArg(filters.Price),
	}
}

func timestampArg(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func priceArg(filter events.PriceFilter) string {
	switch filter {
	case events.PriceFree:
		return "free"
	case events.PricePaid:
		return "paid"
	default:
		return ""
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (events.Event, error) {
	var event events.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Date,
		&event.StartTime,
		&event.EndTime,
		&event.Location,
		&event.Category,
		&event.Description,
		&event.Tags,
		&event.Price.Free,
		&event.Price.Regular,
		&event.Price.Vip,
		&event.ImageURL,
		&event.CreatedAt,
		&event.HostedBy.ID,
		&event.HostedBy.FullName,
	)
	return event, err
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}
