// Package event implements the event record service: validation, creation with a
// server timestamp, listing, lookup, name search and full-replacement edits.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	domainevent "github.com/lllypuk/eventboard/internal/domain/event"
	"github.com/lllypuk/eventboard/internal/domain/record"
)

const entityName = "event"

// Service persists events into a document collection.
type Service struct {
	appcore.BaseService

	logger *slog.Logger
	now    func() time.Time
}

type options struct {
	logger   *slog.Logger
	recorder appcore.OperationRecorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRecorder sets the operation recorder.
func WithRecorder(recorder appcore.OperationRecorder) Option {
	return func(o *options) { o.recorder = recorder }
}

// WithClock overrides the clock used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewService creates an event service. A nil collection makes every operation
// fail with errs.ErrStoreUnavailable.
func NewService(collection appcore.Collection, opts ...Option) *Service {
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		BaseService: appcore.NewBaseService(entityName, collection, o.recorder),
		logger:      o.logger,
		now:         o.now,
	}
}

// Validate checks a submitted record.
func (s *Service) Validate(fields record.Fields) (*domainevent.Event, error) {
	return domainevent.Validate(fields)
}

// Create stores the event with created_at = now and returns its identifier.
// Identical submissions create separate events.
func (s *Service) Create(ctx context.Context, e *domainevent.Event, now time.Time) (string, error) {
	id, err := s.create(ctx, e, now)
	return id, s.Finish("create", err)
}

func (s *Service) create(ctx context.Context, e *domainevent.Event, now time.Time) (string, error) {
	coll, err := s.Collection()
	if err != nil {
		return "", err
	}

	stored := *e
	stored.CreatedAt = now.UTC()
	id, err := coll.InsertOne(ctx, stored.Fields())
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	s.logger.DebugContext(ctx, "event created", slog.String("event_id", id), slog.String("event_name", e.Name))
	return id, nil
}

// Submit validates a record and creates it stamped with the service clock.
func (s *Service) Submit(ctx context.Context, fields record.Fields) (*domainevent.Event, error) {
	e, err := s.Validate(fields)
	if err != nil {
		return nil, s.Finish("create", err)
	}

	now := s.now().UTC()
	id, err := s.Create(ctx, e, now)
	if err != nil {
		return nil, err
	}

	e.ID = id
	e.CreatedAt = now
	return e, nil
}

// FindAll returns every event in store order.
func (s *Service) FindAll(ctx context.Context) ([]*domainevent.Event, error) {
	events, err := s.find(ctx, appcore.All())
	return events, s.Finish("find_all", err)
}

// SearchByName returns events whose name contains query, ignoring case.
func (s *Service) SearchByName(ctx context.Context, query string) ([]*domainevent.Event, error) {
	events, err := s.find(ctx, appcore.Where(appcore.ContainsFold(domainevent.FieldName, query)))
	return events, s.Finish("search", err)
}

// FindByID returns zero or one event.
func (s *Service) FindByID(ctx context.Context, id string) ([]*domainevent.Event, error) {
	events, err := s.find(ctx, appcore.ByID(id))
	return events, s.Finish("find_by_id", err)
}

// Edit replaces the four submitted fields of an existing event. The identifier
// and created_at are kept.
func (s *Service) Edit(ctx context.Context, id string, fields record.Fields) (*domainevent.Event, error) {
	e, err := s.edit(ctx, id, fields)
	return e, s.Finish("edit", err)
}

func (s *Service) edit(ctx context.Context, id string, fields record.Fields) (*domainevent.Event, error) {
	e, err := s.Validate(fields)
	if err != nil {
		return nil, err
	}

	existing, err := s.find(ctx, appcore.ByID(id))
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("event %s: %w", id, errs.ErrNotFound)
	}

	coll, err := s.Collection()
	if err != nil {
		return nil, err
	}

	e.CreatedAt = existing[0].CreatedAt
	matched, err := coll.ReplaceOne(ctx, appcore.ByID(id), e.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to replace event: %w", err)
	}
	if !matched {
		return nil, fmt.Errorf("event %s: %w", id, errs.ErrNotFound)
	}

	e.ID = id
	return e, nil
}

func (s *Service) find(ctx context.Context, filter appcore.Filter) ([]*domainevent.Event, error) {
	coll, err := s.Collection()
	if err != nil {
		return nil, err
	}

	docs, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}

	return appcore.DecodeAll(ctx, s.logger, entityName, docs, func(doc appcore.Document) (*domainevent.Event, error) {
		return domainevent.FromFields(doc)
	}), nil
}
