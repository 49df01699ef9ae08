package appcore

import (
	"fmt"

	"github.com/lllypuk/eventboard/internal/domain/errs"
)

// OperationRecorder observes record service outcomes (metrics).
type OperationRecorder interface {
	Observe(entity, operation string, err error)
}

type noopRecorder struct{}

func (noopRecorder) Observe(string, string, error) {}

// BaseService carries what every record service shares: its collection and recorder.
type BaseService struct {
	entity     string
	collection Collection
	recorder   OperationRecorder
}

// NewBaseService creates a BaseService. A nil collection means the store is not configured.
func NewBaseService(entity string, collection Collection, recorder OperationRecorder) BaseService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return BaseService{entity: entity, collection: collection, recorder: recorder}
}

// Collection returns the configured collection or ErrStoreUnavailable.
func (b *BaseService) Collection() (Collection, error) {
	if b.collection == nil {
		return nil, fmt.Errorf("%s store: %w", b.entity, errs.ErrStoreUnavailable)
	}
	return b.collection, nil
}

// Finish records the outcome of operation and wraps err with it.
func (b *BaseService) Finish(operation string, err error) error {
	b.recorder.Observe(b.entity, operation, err)
	return b.WrapError(operation, err)
}

// WrapError wraps an error with the operation name
func (b *BaseService) WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", b.entity, operation, err)
}
