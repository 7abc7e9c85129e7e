package recorder

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFetch(_ *FetchEvent) error              { return nil }
func (n *NoopRecorder) RecordForecast(_ *ForecastRun) error          { return nil }
func (n *NoopRecorder) RecentForecasts(_ int) ([]ForecastRun, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                 { return nil }
