package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bths-action/club-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestCreateAssignsIDAndCreatedAt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))

	event := &models.Event{
		Name:        "Beach Cleanup",
		Description: "Meet at the dock.",
		EventTime:   time.Now().Add(24 * time.Hour),
		MaxPoints:   5,
		MaxHours:    2,
		Address:     "1 Dock Rd",
	}
	err := repo.Create(context.Background(), event)
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDescription(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET description = $1 WHERE id = $2")).
		WithArgs("resolved text", "evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDescription(context.Background(), "evt-1", "resolved text")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMessageID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET message_id = $1 WHERE id = $2")).
		WithArgs("msg-777", "evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateMessageID(context.Background(), "evt-1", "msg-777")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "event_time", "finish_time", "max_points", "max_hours", "member_limit", "address", "image_url", "service_letters", "message_id", "created_at"}).
		AddRow("evt-1", "Beach Cleanup", "Meet at the dock.", now, nil, 5.0, 2.0, nil, "1 Dock Rd", nil, nil, nil, now)
	mock.ExpectQuery("SELECT (.+) FROM events WHERE id = \\$1").
		WithArgs("evt-1").
		WillReturnRows(rows)

	event, err := repo.GetByID(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Beach Cleanup", event.Name)
	assert.Nil(t, event.MessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersByEventTime(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "event_time", "finish_time", "max_points", "max_hours", "member_limit", "address", "image_url", "service_letters", "message_id", "created_at"}).
		AddRow("evt-1", "A", "d", now, nil, 1.0, 1.0, nil, "addr", nil, nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, event_time, finish_time, max_points, max_hours, member_limit, address, image_url, service_letters, message_id, created_at FROM events ORDER BY event_time DESC LIMIT 10 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendeeCountsEmptyInput(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	counts, err := repo.AttendeeCounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestAttendeeCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	rows := sqlmock.NewRows([]string{"event_id", "count"}).
		AddRow("evt-1", 3).
		AddRow("evt-2", 1)
	mock.ExpectQuery("SELECT event_id, COUNT\\(\\*\\) FROM attendances").
		WillReturnRows(rows)

	counts, err := repo.AttendeeCounts(context.Background(), []string{"evt-1", "evt-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"evt-1": 3, "evt-2": 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
