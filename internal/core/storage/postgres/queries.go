package postgres

// SQL for daily metrics and extraction run bookkeeping.

const (
	// queryUpsertDailyMetrics replaces a date's values; every run fully re-derives its window.
	queryUpsertDailyMetrics = `
		INSERT INTO app_daily_metrics (
			app_id, date, first_time_download, redownload, updates, deletions,
			total_sessions, total_active_devices, avg_sessions_per_device,
			user_loss_rate_percent, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (app_id, date)
		DO UPDATE SET
			first_time_download     = EXCLUDED.first_time_download,
			redownload              = EXCLUDED.redownload,
			updates                 = EXCLUDED.updates,
			deletions               = EXCLUDED.deletions,
			total_sessions          = EXCLUDED.total_sessions,
			total_active_devices    = EXCLUDED.total_active_devices,
			avg_sessions_per_device = EXCLUDED.avg_sessions_per_device,
			user_loss_rate_percent  = EXCLUDED.user_loss_rate_percent,
			updated_at              = EXCLUDED.updated_at
	`

	queryRangeDailyMetrics = `
		SELECT
			date, first_time_download, redownload, updates, deletions,
			total_sessions, total_active_devices, avg_sessions_per_device,
			user_loss_rate_percent
		FROM app_daily_metrics
		WHERE app_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date ASC
	`

	queryInsertExtractionRun = `
		INSERT INTO extraction_runs (
			id, app_id, window_start, window_end, status,
			record_count, error_message, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querySchemaExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'app_daily_metrics'
		)
	`
)
