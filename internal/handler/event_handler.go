package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bths-action/club-api/internal/dto"
	"github.com/bths-action/club-api/internal/models"
	appErrors "github.com/bths-action/club-api/pkg/errors"
	"github.com/bths-action/club-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, page int) ([]models.Event, *models.Pagination, error)
	ListPreviews(ctx context.Context, page int) ([]models.EventPreview, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Event, error)
}

type publicationService interface {
	Publish(ctx context.Context, callerEmail string, req dto.CreateEventRequest) (*models.Event, []string, error)
}

// EventHandler exposes the event endpoints.
type EventHandler struct {
	events      eventService
	publication publicationService
}

// NewEventHandler builds a new handler.
func NewEventHandler(events eventService, publication publicationService) *EventHandler {
	return &EventHandler{events: events, publication: publication}
}

// Create runs the publication pipeline for a new event. Dispatch failures
// after the record exists surface as warnings on a 200 response.
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		response.Error(c, err)
		return
	}

	event, warnings, err := h.publication.Publish(c.Request.Context(), emailFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSONWithWarnings(c, http.StatusOK, event, warnings)
}

// List returns one page of events, stripped to previews when requested.
func (h *EventHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "bad page"))
		return
	}

	if c.Request.URL.Query().Has("preview") {
		previews, pagination, err := h.events.ListPreviews(c.Request.Context(), page)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, previews, pagination)
		return
	}

	events, pagination, err := h.events.List(c.Request.Context(), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get returns a single event by id.
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// decodeJSON separates unparseable bodies from well-formed payloads that
// merely violate a field's type, so the two report differently.
func decodeJSON(r io.Reader, dst interface{}) error {
	if r == nil {
		return appErrors.Clone(appErrors.ErrMalformed, "missing body")
	}

	err := json.NewDecoder(r).Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var timeErr *time.ParseError
	switch {
	case errors.As(err, &typeErr):
		return appErrors.WithFields([]appErrors.FieldViolation{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		}})
	case errors.As(err, &timeErr):
		return appErrors.Clone(appErrors.ErrValidation, "timestamps must be valid ISO 8601 dates")
	case errors.Is(err, io.EOF):
		return appErrors.Clone(appErrors.ErrMalformed, "missing body")
	default:
		return appErrors.ErrMalformed
	}
}
