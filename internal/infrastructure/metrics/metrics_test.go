package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/pocketledger/internal/usecase"
)

var _ usecase.MetricsRecorder = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordEntryChange("financial")
	m.RecordEntryChange("financial")
	m.RecordIDCollision("entry")
	m.RecordTransactionOperation("create", nil)
	m.RecordTransactionOperation("create", errors.New("boom"))
	m.RecordTxRetry("40001")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntryChanges.WithLabelValues("financial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IDCollisions.WithLabelValues("entry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionOperations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionOperations.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRetries.WithLabelValues("40001")))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
