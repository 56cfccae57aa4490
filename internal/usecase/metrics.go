package usecase

// MetricsRecorder receives business events from the use cases.
type MetricsRecorder interface {
	RecordEntryChange(kind string)
	RecordIDCollision(entity string)
	RecordTransactionOperation(operation string, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordEntryChange(string)                 {}
func (nopMetrics) RecordIDCollision(string)                 {}
func (nopMetrics) RecordTransactionOperation(string, error) {}

func metricsOrNop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
