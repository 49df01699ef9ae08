// Package metrics exposes Prometheus metrics for the record services.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lllypuk/eventboard/internal/domain/errs"
)

// Outcome labels of a record operation.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// RecordMetrics counts record service operations by entity, operation and outcome.
type RecordMetrics struct {
	Operations *prometheus.CounterVec
}

// NewRecordMetrics creates and registers record metrics with the given registerer.
func NewRecordMetrics(registerer prometheus.Registerer) *RecordMetrics {
	m := &RecordMetrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventboard_record_operations_total",
				Help: "Total number of record service operations",
			},
			[]string{"entity", "operation", "outcome"},
		),
	}

	registerer.MustRegister(m.Operations)
	return m
}

// Observe records one operation outcome.
func (m *RecordMetrics) Observe(entity, operation string, err error) {
	m.Operations.WithLabelValues(entity, operation, Outcome(err)).Inc()
}

// Outcome classifies an operation error into an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, errs.ErrFieldMismatch),
		errors.Is(err, errs.ErrEmptyBody),
		errors.Is(err, errs.ErrInvalidField),
		errors.Is(err, errs.ErrInvalidInput):
		return OutcomeRejected
	case errors.Is(err, errs.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, errs.ErrStoreUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
