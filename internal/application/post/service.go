// Package post implements the post record service.
package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	domainpost "github.com/lllypuk/eventboard/internal/domain/post"
	"github.com/lllypuk/eventboard/internal/domain/record"
)

const entityName = "post"

// Service persists posts into a document collection.
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

// NewService creates a post service. A nil collection makes every operation
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
func (s *Service) Validate(fields record.Fields) (*domainpost.Post, error) {
	return domainpost.Validate(fields)
}

// Create stores the post with created_at = now and returns its identifier.
func (s *Service) Create(ctx context.Context, p *domainpost.Post, now time.Time) (string, error) {
	id, err := s.create(ctx, p, now)
	return id, s.Finish("create", err)
}

func (s *Service) create(ctx context.Context, p *domainpost.Post, now time.Time) (string, error) {
	coll, err := s.Collection()
	if err != nil {
		return "", err
	}

	stored := *p
	stored.CreatedAt = now.UTC()
	id, err := coll.InsertOne(ctx, stored.Fields())
	if err != nil {
		return "", fmt.Errorf("failed to insert post: %w", err)
	}

	s.logger.DebugContext(ctx, "post created",
		slog.String("post_id", id),
		slog.String("event_id", p.EventID),
		slog.Int("files", len(p.Files)))
	return id, nil
}

// Submit validates a record and creates it stamped with the service clock.
func (s *Service) Submit(ctx context.Context, fields record.Fields) (*domainpost.Post, error) {
	p, err := s.Validate(fields)
	if err != nil {
		return nil, s.Finish("create", err)
	}

	now := s.now().UTC()
	id, err := s.Create(ctx, p, now)
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.CreatedAt = now
	return p, nil
}

// FindAll returns every post in store order.
func (s *Service) FindAll(ctx context.Context) ([]*domainpost.Post, error) {
	posts, err := s.find(ctx, appcore.All())
	return posts, s.Finish("find_all", err)
}

// FindByID returns zero or one post.
func (s *Service) FindByID(ctx context.Context, id string) ([]*domainpost.Post, error) {
	posts, err := s.find(ctx, appcore.ByID(id))
	return posts, s.Finish("find_by_id", err)
}

// FindByEvent returns the posts of one event.
func (s *Service) FindByEvent(ctx context.Context, eventID string) ([]*domainpost.Post, error) {
	posts, err := s.find(ctx, appcore.Where(appcore.Eq(domainpost.FieldEventID, eventID)))
	return posts, s.Finish("find_by_event", err)
}

// Delete removes a post written by authorID. A post by another author is not found.
func (s *Service) Delete(ctx context.Context, id, authorID string) error {
	return s.Finish("delete", s.delete(ctx, id, authorID))
}

func (s *Service) delete(ctx context.Context, id, authorID string) error {
	coll, err := s.Collection()
	if err != nil {
		return err
	}

	deleted, err := coll.DeleteOne(ctx, appcore.Where(
		appcore.Eq(appcore.IDField, id),
		appcore.Eq(domainpost.FieldAuthorID, authorID),
	))
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if !deleted {
		return fmt.Errorf("post %s by %s: %w", id, authorID, errs.ErrNotFound)
	}
	return nil
}

func (s *Service) find(ctx context.Context, filter appcore.Filter) ([]*domainpost.Post, error) {
	coll, err := s.Collection()
	if err != nil {
		return nil, err
	}

	docs, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}

	return appcore.DecodeAll(ctx, s.logger, entityName, docs, domainpost.FromFields), nil
}
