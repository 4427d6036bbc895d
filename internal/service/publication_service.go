package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bths-action/club-api/internal/dto"
	"github.com/bths-action/club-api/internal/models"
	"github.com/bths-action/club-api/internal/notify"
	"github.com/bths-action/club-api/internal/render"
	appErrors "github.com/bths-action/club-api/pkg/errors"
	"github.com/bths-action/club-api/pkg/jobs"
)

// trustedDocumentHost limits service-letter links to the club's document
// drive.
var trustedDocumentHost = regexp.MustCompile(`^https://drive\.google\.com/`)

type publicationEventRepo interface {
	Create(ctx context.Context, event *models.Event) error
	UpdateDescription(ctx context.Context, id, description string) error
	UpdateMessageID(ctx context.Context, id, messageID string) error
}

type publisherLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type announcementDispatcher interface {
	Dispatch(ctx context.Context, ann notify.Announcement) notify.DispatchResult
}

type retryEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReconcilePayload is the retry-queue payload for a deferred message-id
// write.
type ReconcilePayload struct {
	EventID   string
	MessageID string
}

// PublicationService is the pipeline coordinator: validate, authorize,
// create, resolve the self-link, render, dispatch, reconcile.
type PublicationService struct {
	events     publicationEventRepo
	users      publisherLookup
	renderer   *render.Renderer
	dispatcher announcementDispatcher
	retry      retryEnqueuer
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewPublicationService constructs the orchestrator.
func NewPublicationService(
	events publicationEventRepo,
	users publisherLookup,
	renderer *render.Renderer,
	dispatcher announcementDispatcher,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
) *PublicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Report violations under the payload's JSON field names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("driveurl", func(fl validator.FieldLevel) bool {
		return trustedDocumentHost.MatchString(fl.Field().String())
	})

	return &PublicationService{
		events:     events,
		users:      users,
		renderer:   renderer,
		dispatcher: dispatcher,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// UseRetryQueue attaches the queue that retries failed reconciliation
// writes. Wired after construction because the queue's handler is this
// service's Reconcile.
func (s *PublicationService) UseRetryQueue(q retryEnqueuer) {
	s.retry = q
}

// Publish runs the full pipeline for one create-event request.
//
// Validation and authorization are pure guards: any failure there leaves no
// trace. Once the record is created the event is published; later dispatch
// or reconciliation failures come back as warnings on a successful result,
// never as a rolled-back event.
func (s *PublicationService) Publish(ctx context.Context, callerEmail string, req dto.CreateEventRequest) (*models.Event, []string, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	publisher, err := s.authorize(ctx, callerEmail)
	if err != nil {
		return nil, nil, err
	}

	event := &models.Event{
		Name:           req.Name,
		Description:    req.Description,
		EventTime:      req.EventTime.UTC(),
		MaxPoints:      *req.MaxPoints,
		MaxHours:       *req.MaxHours,
		Limit:          req.Limit,
		Address:        req.Address,
		ImageURL:       req.ImageURL,
		ServiceLetters: req.ServiceLetters,
	}
	if req.FinishTime != nil {
		finish := req.FinishTime.UTC()
		event.FinishTime = &finish
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.metrics.PublicationCreated()

	// The permalink cannot exist before the id does, so the placeholder is
	// resolved as a second, narrow update.
	event.Description = s.renderer.ResolveLink(event.Description, event.ID)
	if err := s.events.UpdateDescription(ctx, event.ID, event.Description); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to normalize event description")
	}

	html, err := s.renderer.EmailHTML(*event)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render announcement")
	}

	result := s.dispatcher.Dispatch(ctx, notify.Announcement{
		Embed:     s.renderer.Embed(*event, s.now()),
		Subject:   s.renderer.Subject(*event),
		HTML:      html,
		Publisher: publisher,
	})

	var warnings []string
	if result.Webhook.Err != nil {
		s.metrics.DispatchFailed("webhook")
		warnings = append(warnings, fmt.Sprintf("webhook announcement failed: %v", result.Webhook.Err))
	}
	if result.Email.Err != nil {
		s.metrics.DispatchFailed("email")
		warnings = append(warnings, fmt.Sprintf("email announcement failed: %v", result.Email.Err))
	}

	if result.Webhook.Err == nil {
		messageID := result.Webhook.ID
		event.MessageID = &messageID
		if err := s.events.UpdateMessageID(ctx, event.ID, messageID); err != nil {
			warnings = append(warnings, "message id reconciliation failed; retrying in background")
			s.scheduleReconcile(event.ID, messageID, err)
		}
	}

	s.logger.Info("event published",
		zap.String("event_id", event.ID),
		zap.String("publisher", publisher.PreferredName),
		zap.Int("warnings", len(warnings)))

	return event, warnings, nil
}

// Reconcile is the retry-queue handler for deferred message-id writes.
func (s *PublicationService) Reconcile(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReconcilePayload)
	if !ok {
		return fmt.Errorf("unexpected reconcile payload %T", job.Payload)
	}
	return s.events.UpdateMessageID(ctx, payload.EventID, payload.MessageID)
}

func (s *PublicationService) scheduleReconcile(eventID, messageID string, cause error) {
	s.metrics.ReconcileRetryScheduled()
	s.logger.Error("message id reconciliation failed",
		zap.String("event_id", eventID),
		zap.String("message_id", messageID),
		zap.Error(cause))

	if s.retry == nil {
		return
	}
	job := jobs.Job{
		ID:      eventID,
		Type:    "reconcile_message_id",
		Payload: ReconcilePayload{EventID: eventID, MessageID: messageID},
	}
	if err := s.retry.Enqueue(job); err != nil {
		s.logger.Error("failed to enqueue reconcile retry",
			zap.String("event_id", eventID), zap.Error(err))
	}
}

// validate runs every schema rule and reports all violations together.
func (s *PublicationService) validate(req dto.CreateEventRequest) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	violations := make([]appErrors.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, appErrors.FieldViolation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return appErrors.WithFields(violations)
}

// authorize resolves the caller in a single lookup: the same user row
// carries both the privilege decision and the display identity used as the
// announcement's apparent sender.
func (s *PublicationService) authorize(ctx context.Context, email string) (models.Publisher, error) {
	if email == "" {
		return models.Publisher{}, appErrors.ErrUnauthorized
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Publisher{}, appErrors.ErrUnauthorized
		}
		return models.Publisher{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve caller")
	}

	if !user.Position.CanPublish() {
		return models.Publisher{}, appErrors.ErrUnauthorized
	}

	publisher := models.Publisher{PreferredName: user.PreferredName}
	if user.SelfieURL != nil {
		publisher.AvatarURL = *user.SelfieURL
	}
	return publisher, nil
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "url":
		return "must be a well-formed URI"
	case "driveurl":
		return "must be a trusted document link"
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
