package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanDailyRow scans one app_daily_metrics row. Ratios are NUMERIC and come back as text.
func scanDailyRow(row scanner) (coreagg.OutputRecord, error) {
	var (
		rec          coreagg.OutputRecord
		date         time.Time
		avgStr, loss string
	)
	err := row.Scan(
		&date,
		&rec.FirstTimeDownload,
		&rec.Redownload,
		&rec.Updates,
		&rec.Deletions,
		&rec.TotalSessions,
		&rec.TotalActiveDevices,
		&avgStr,
		&loss,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan daily metrics row: %w", err)
	}
	rec.Date = date.UTC().Format(coreagg.DateLayout)

	if rec.AvgSessionsPerDevice, err = numericToFloat(avgStr); err != nil {
		return rec, fmt.Errorf("avg_sessions_per_device: %w", err)
	}
	if rec.UserLossRatePercent, err = numericToFloat(loss); err != nil {
		return rec, fmt.Errorf("user_loss_rate_percent: %w", err)
	}
	return rec, nil
}

func numericToFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}

func twoPlaces(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
