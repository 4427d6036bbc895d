package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bths-action/club-api/internal/models"
	appErrors "github.com/bths-action/club-api/pkg/errors"
)

type queryRepoStub struct {
	events  []models.Event
	total   int
	counts  map[string]int
	getItem *models.Event
	listErr error
	getErr  error
}

func (s *queryRepoStub) List(ctx context.Context, page, pageSize int) ([]models.Event, int, error) {
	return s.events, s.total, s.listErr
}

func (s *queryRepoStub) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getItem, nil
}

func (s *queryRepoStub) AttendeeCounts(ctx context.Context, eventIDs []string) (map[string]int, error) {
	return s.counts, nil
}

func sampleEvents() []models.Event {
	return []models.Event{
		{
			ID:          "evt-1",
			Name:        "Park Mural",
			Description: "secret details",
			Address:     "99 Park Ave",
			EventTime:   time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC),
			MaxPoints:   3,
			MaxHours:    1,
		},
		{
			ID:        "evt-2",
			Name:      "Food Drive",
			Address:   "12 Main St",
			EventTime: time.Date(2025, 6, 20, 15, 0, 0, 0, time.UTC),
			MaxPoints: 4,
			MaxHours:  2,
		},
	}
}

func TestListPreviewsStripsAndCounts(t *testing.T) {
	repo := &queryRepoStub{
		events: sampleEvents(),
		total:  2,
		counts: map[string]int{"evt-1": 7},
	}
	svc := NewEventService(repo, nil, 10, time.Minute, nil)

	previews, pagination, err := svc.ListPreviews(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, previews, 2)

	assert.Equal(t, 7, previews[0].FormCount)
	assert.Equal(t, 0, previews[1].FormCount)
	assert.Equal(t, 2, pagination.TotalCount)

	// Preview shape carries neither address nor description.
	assert.Equal(t, "Park Mural", previews[0].Name)
}

func TestListPropagatesRepoFailure(t *testing.T) {
	repo := &queryRepoStub{listErr: errors.New("db down")}
	svc := NewEventService(repo, nil, 10, time.Minute, nil)

	_, _, err := svc.List(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestGetNotFound(t *testing.T) {
	repo := &queryRepoStub{getErr: sql.ErrNoRows}
	svc := NewEventService(repo, nil, 10, time.Minute, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestGetReturnsEvent(t *testing.T) {
	repo := &queryRepoStub{getItem: &models.Event{ID: "evt-1", Name: "Park Mural"}}
	svc := NewEventService(repo, nil, 10, time.Minute, nil)

	event, err := svc.Get(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Park Mural", event.Name)
}
