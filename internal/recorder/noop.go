package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAverage(_ *AverageQuery) error         { return nil }
func (n *NoopRecorder) RecordCorrelation(_ *CorrelationQuery) error { return nil }
func (n *NoopRecorder) Close() error                                { return nil }
