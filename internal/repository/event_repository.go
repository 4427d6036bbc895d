package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bths-action/club-api/internal/models"
)

const eventColumns = `id, name, description, event_time, finish_time, max_points, max_hours, member_limit, address, image_url, service_letters, message_id, created_at`

// EventRepository provides persistence for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event, assigning its id and creation timestamp.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO events (id, name, description, event_time, finish_time, max_points, max_hours, member_limit, address, image_url, service_letters, created_at)
VALUES (:id, :name, :description, :event_time, :finish_time, :max_points, :max_hours, :member_limit, :address, :image_url, :service_letters, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// UpdateDescription rewrites only the description column. The pipeline uses
// this to resolve the self-link placeholder once the id is known.
func (r *EventRepository) UpdateDescription(ctx context.Context, id, description string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE events SET description = $1 WHERE id = $2", description, id); err != nil {
		return fmt.Errorf("update event description: %w", err)
	}
	return nil
}

// UpdateMessageID attaches the channel-assigned message identifier.
func (r *EventRepository) UpdateMessageID(ctx context.Context, id, messageID string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE events SET message_id = $1 WHERE id = $2", messageID, id); err != nil {
		return fmt.Errorf("update event message id: %w", err)
	}
	return nil
}

// GetByID returns an event by identifier.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns one page of events, newest event time first.
func (r *EventRepository) List(ctx context.Context, page, pageSize int) ([]models.Event, int, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	query := fmt.Sprintf("SELECT %s FROM events ORDER BY event_time DESC LIMIT %d OFFSET %d",
		eventColumns, pageSize, page*pageSize)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events"); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// AttendeeCounts returns the number of attendance forms per event.
func (r *EventRepository) AttendeeCounts(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	rows, err := r.db.QueryxContext(ctx,
		"SELECT event_id, COUNT(*) FROM attendances WHERE event_id = ANY($1) GROUP BY event_id",
		pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("count attendees: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan attendee count: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}
