package projection

import (
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
)

// MetricsQueryRequest selects stored daily records of one app.
type MetricsQueryRequest struct {
	AppID string
	Start string // YYYY-MM-DD, inclusive
	End   string // YYYY-MM-DD, inclusive
}

// MetricsSummary rolls the range up into one set of totals with ratios recomputed from them.
type MetricsSummary struct {
	Days                 int     `json:"days"`
	FirstTimeDownload    int64   `json:"first_time_download"`
	Redownload           int64   `json:"redownload"`
	Updates              int64   `json:"updates"`
	Deletions            int64   `json:"deletions"`
	TotalSessions        int64   `json:"total_sessions"`
	TotalActiveDevices   int64   `json:"total_active_devices"`
	AvgSessionsPerDevice float64 `json:"avg_sessions_per_device"`
	UserLossRatePercent  float64 `json:"user_loss_rate_percent"`
}

// MetricsQueryResponse is the body of GET /v1/metrics/:app_id.
type MetricsQueryResponse struct {
	AppID   string                 `json:"app_id"`
	Start   string                 `json:"start"`
	End     string                 `json:"end"`
	Summary MetricsSummary         `json:"summary"`
	Records []coreagg.OutputRecord `json:"records"`
}
