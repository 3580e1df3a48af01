package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/core/storage"
)

// MetricsAdapter implements storage.MetricsStore using PostgreSQL.
type MetricsAdapter struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.MetricsStore = (*MetricsAdapter)(nil)

// NewMetricsAdapter creates a MetricsAdapter sharing the given connection.
func NewMetricsAdapter(db *sql.DB) *MetricsAdapter {
	return &MetricsAdapter{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// UpsertDaily writes all records in one transaction. A failed record rolls back the batch.
func (a *MetricsAdapter) UpsertDaily(ctx context.Context, appID string, records []coreagg.OutputRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("daily metrics upsert: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, queryUpsertDailyMetrics)
	if err != nil {
		return fmt.Errorf("daily metrics upsert: prepare: %w", err)
	}
	defer stmt.Close()

	updatedAt := a.now()
	for _, rec := range records {
		date, err := time.Parse(coreagg.DateLayout, rec.Date)
		if err != nil {
			return fmt.Errorf("daily metrics upsert: date %q: %w", rec.Date, err)
		}
		if _, err := stmt.ExecContext(ctx,
			appID,
			date,
			rec.FirstTimeDownload,
			rec.Redownload,
			rec.Updates,
			rec.Deletions,
			rec.TotalSessions,
			rec.TotalActiveDevices,
			twoPlaces(rec.AvgSessionsPerDevice),
			twoPlaces(rec.UserLossRatePercent),
			updatedAt,
		); err != nil {
			return fmt.Errorf("daily metrics upsert: %s/%s: %w", appID, rec.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("daily metrics upsert: commit: %w", err)
	}

	slog.Info("[Postgres] Upserted daily metrics", "app_id", appID, "records", len(records))
	return nil
}

// QueryRange returns stored records for appID with start <= date <= end, ordered by date.
func (a *MetricsAdapter) QueryRange(ctx context.Context, appID string, start, end time.Time) ([]coreagg.OutputRecord, error) {
	rows, err := a.db.QueryContext(ctx, queryRangeDailyMetrics, appID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily metrics: %w", err)
	}
	defer rows.Close()

	records := []coreagg.OutputRecord{}
	for rows.Next() {
		rec, err := scanDailyRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily metrics: %w", err)
	}
	return records, nil
}

// RecordRun inserts one extraction_runs row.
func (a *MetricsAdapter) RecordRun(ctx context.Context, run storage.ExtractionRun) error {
	_, err := a.db.ExecContext(ctx, queryInsertExtractionRun,
		run.ID,
		run.AppID,
		run.WindowStart,
		run.WindowEnd,
		string(run.Status),
		run.Records,
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record extraction run %s: %w", run.ID, err)
	}
	return nil
}

// Ping checks database connectivity.
func (a *MetricsAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}
