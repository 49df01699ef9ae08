package metrics_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/infrastructure/metrics"
)

func TestRecordMetrics_Observe(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewRecordMetrics(registry)

	m.Observe("event", "create", nil)
	m.Observe("event", "create", nil)
	m.Observe("event", "create", fmt.Errorf("event create: %w", errs.ErrFieldMismatch))

	assert.InDelta(t, 2, testutil.ToFloat64(m.Operations.WithLabelValues("event", "create", metrics.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues("event", "create", metrics.OutcomeRejected)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.Operations))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.OutcomeSuccess},
		{errs.ErrEmptyBody, metrics.OutcomeRejected},
		{errs.ErrInvalidField, metrics.OutcomeRejected},
		{fmt.Errorf("x: %w", errs.ErrNotFound), metrics.OutcomeNotFound},
		{fmt.Errorf("x: %w", errs.ErrStoreUnavailable), metrics.OutcomeUnavailable},
		{errors.New("boom"), metrics.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, metrics.Outcome(tt.err))
		})
	}
}
