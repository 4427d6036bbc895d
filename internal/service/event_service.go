package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bths-action/club-api/internal/models"
	appErrors "github.com/bths-action/club-api/pkg/errors"
)

type eventQueryRepo interface {
	List(ctx context.Context, page, pageSize int) ([]models.Event, int, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	AttendeeCounts(ctx context.Context, eventIDs []string) (map[string]int, error)
}

// EventService serves event reads: full pages, stripped preview pages, and
// single records. Preview pages are cached briefly since they back the
// public listing.
type EventService struct {
	repo     eventQueryRepo
	cache    *redis.Client
	pageSize int
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewEventService constructs the service. cache may be nil, which disables
// preview caching.
func NewEventService(repo eventQueryRepo, cache *redis.Client, pageSize int, cacheTTL time.Duration, logger *zap.Logger) *EventService {
	if pageSize <= 0 {
		pageSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, cache: cache, pageSize: pageSize, cacheTTL: cacheTTL, logger: logger}
}

// List returns one full page of events.
func (s *EventService) List(ctx context.Context, page int) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, page, s.pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, &models.Pagination{Page: page, PageSize: s.pageSize, TotalCount: total}, nil
}

// ListPreviews returns one page in the stripped listing shape, with the
// attendance form count attached to each event.
func (s *EventService) ListPreviews(ctx context.Context, page int) ([]models.EventPreview, *models.Pagination, error) {
	type cached struct {
		Previews   []models.EventPreview `json:"previews"`
		Pagination models.Pagination     `json:"pagination"`
	}

	key := fmt.Sprintf("events:preview:%d", page)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var hit cached
			if err := json.Unmarshal(raw, &hit); err == nil {
				return hit.Previews, &hit.Pagination, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("preview cache read failed", zap.Error(err))
		}
	}

	events, total, err := s.repo.List(ctx, page, s.pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := s.repo.AttendeeCounts(ctx, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendees")
	}

	previews := make([]models.EventPreview, len(events))
	for i, e := range events {
		previews[i] = e.Preview(counts[e.ID])
	}
	pagination := &models.Pagination{Page: page, PageSize: s.pageSize, TotalCount: total}

	if s.cache != nil {
		if raw, err := json.Marshal(cached{Previews: previews, Pagination: *pagination}); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("preview cache write failed", zap.Error(err))
			}
		}
	}

	return previews, pagination, nil
}

// Get returns one event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get event")
	}
	return event, nil
}
