package storage

import (
	"context"
	"time"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
)

// RunStatus is the terminal state of one extraction run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// ExtractionRun is the audit row written once per run.
type ExtractionRun struct {
	ID          string
	AppID       string
	WindowStart time.Time
	WindowEnd   time.Time
	Status      RunStatus
	Records     int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// MetricsStore persists daily metrics records keyed by (app_id, date).
type MetricsStore interface {
	// UpsertDaily writes records, replacing any previous values for the same app and date.
	UpsertDaily(ctx context.Context, appID string, records []coreagg.OutputRecord) error

	// QueryRange returns stored records with start <= date <= end, ordered by date ASC.
	QueryRange(ctx context.Context, appID string, start, end time.Time) ([]coreagg.OutputRecord, error)

	// RecordRun appends one extraction_runs row.
	RecordRun(ctx context.Context, run ExtractionRun) error

	Ping(ctx context.Context) error
}
