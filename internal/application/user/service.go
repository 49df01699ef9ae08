// Package user implements the user profile service: idempotent upserts keyed by
// user_id and organizer-flag authorization lookups.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/domain/record"
	domainuser "github.com/lllypuk/eventboard/internal/domain/user"
)

const entityName = "user"

// Identity is a verified identity-provider subject.
type Identity struct {
	Subject string
	Name    string
	Email   string
}

// Service stores user profiles in a document collection.
type Service struct {
	appcore.BaseService

	logger *slog.Logger
}

type options struct {
	logger   *slog.Logger
	recorder appcore.OperationRecorder
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

// NewService creates a user service. A nil collection makes every operation
// fail with errs.ErrStoreUnavailable.
func NewService(collection appcore.Collection, opts ...Option) *Service {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		BaseService: appcore.NewBaseService(entityName, collection, o.recorder),
		logger:      o.logger,
	}
}

// Upsert stores the profile, replacing any profile with the same user_id.
// is_organizer is reset to false on every call. created reports an insert.
func (s *Service) Upsert(ctx context.Context, fields record.Fields) (*domainuser.User, bool, error) {
	u, created, err := s.upsert(ctx, fields)
	return u, created, s.Finish("upsert", err)
}

func (s *Service) upsert(ctx context.Context, fields record.Fields) (*domainuser.User, bool, error) {
	u, err := domainuser.FromSubmission(fields)
	if err != nil {
		return nil, false, err
	}

	coll, err := s.Collection()
	if err != nil {
		return nil, false, err
	}

	filter := appcore.Where(appcore.Eq(domainuser.FieldUserID, u.UserID))
	created, err := coll.ReplaceOrInsert(ctx, filter, u.Fields())
	if errors.Is(err, errs.ErrAlreadyExists) {
		// a concurrent upsert inserted the same user_id first; the retry replaces it
		created, err = coll.ReplaceOrInsert(ctx, filter, u.Fields())
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user %s: %w", u.UserID, err)
	}

	s.logger.DebugContext(ctx, "user upserted", slog.String("user_id", u.UserID), slog.Bool("created", created))
	return u, created, nil
}

// IsAuthorized reports the stored organizer flag. A missing user or a missing
// flag is not authorized.
func (s *Service) IsAuthorized(ctx context.Context, userID string) (bool, error) {
	ok, err := s.isAuthorized(ctx, userID)
	return ok, s.Finish("authorization", err)
}

func (s *Service) isAuthorized(ctx context.Context, userID string) (bool, error) {
	coll, err := s.Collection()
	if err != nil {
		return false, err
	}

	docs, err := coll.Find(ctx, appcore.Where(appcore.Eq(domainuser.FieldUserID, userID)))
	if err != nil {
		return false, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	if len(docs) == 0 {
		return false, nil
	}
	return domainuser.OrganizerFlag(docs[0]), nil
}

// Authenticate upserts the profile of a verified identity.
func (s *Service) Authenticate(ctx context.Context, identity Identity) (*domainuser.User, bool, error) {
	if identity.Subject == "" {
		return nil, false, s.Finish("authenticate", fmt.Errorf("%w: identity has no subject", errs.ErrInvalidInput))
	}

	fields := record.Fields{
		domainuser.FieldUserID: identity.Subject,
		domainuser.FieldName:   identity.Name,
	}
	if identity.Email != "" {
		fields["email"] = identity.Email
	}

	u, created, err := s.upsert(ctx, fields)
	return u, created, s.Finish("authenticate", err)
}
