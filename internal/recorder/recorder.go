package recorder

import "time"

// FetchEvent records one market-data provider call.
type FetchEvent struct {
	Ticker   string
	Start    time.Time
	End      time.Time
	Source   string
	Rows     int
	Duration time.Duration
	Err      string
	// At defaults to the time of recording.
	At time.Time
}

// ForecastRun records one forecast produced for the dashboard.
type ForecastRun struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Ticker      string        `json:"ticker"`
	Model       string        `json:"model"`
	HistoryRows int           `json:"history_rows"`
	HorizonDays int           `json:"horizon_days"`
	FinalDS     time.Time     `json:"final_ds"`
	FinalYHat   float64       `json:"final_yhat"`
	FinalLower  float64       `json:"final_lower"`
	FinalUpper  float64       `json:"final_upper"`
	Duration    time.Duration `json:"duration_ns"`
}

// Recorder persists fetch and forecast history for later analysis.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	RecordForecast(run *ForecastRun) error
	RecentForecasts(limit int) ([]ForecastRun, error)
	Close() error
}
