package aggregation

// Kind names one family of analytics reports folded into the daily record.
type Kind string

// Report kinds, in processing order.
const (
	KindDownloads Kind = "downloads"
	KindDeletes   Kind = "deletes"
	KindSessions  Kind = "sessions"
)

// Metric is one accumulated counter of a daily record.
type Metric string

const (
	MetricFirstTimeDownload  Metric = "first_time_download"
	MetricRedownload         Metric = "redownload"
	MetricUpdates            Metric = "updates"
	MetricDeletions          Metric = "deletions"
	MetricTotalSessions      Metric = "total_sessions"
	MetricTotalActiveDevices Metric = "total_active_devices"
)

// Metrics lists every accumulated counter in output field order.
var Metrics = []Metric{
	MetricFirstTimeDownload,
	MetricRedownload,
	MetricUpdates,
	MetricDeletions,
	MetricTotalSessions,
	MetricTotalActiveDevices,
}

// Increment is one additive contribution of a row to a metric.
type Increment struct {
	Metric Metric
	Value  int64
}

// OutputRecord is the normalized per-date metrics record.
type OutputRecord struct {
	Date                 string  `json:"date"`
	FirstTimeDownload    int64   `json:"first_time_download"`
	Redownload           int64   `json:"redownload"`
	Updates              int64   `json:"updates"`
	Deletions            int64   `json:"deletions"`
	TotalSessions        int64   `json:"total_sessions"`
	TotalActiveDevices   int64   `json:"total_active_devices"`
	AvgSessionsPerDevice float64 `json:"avg_sessions_per_device"`
	UserLossRatePercent  float64 `json:"user_loss_rate_percent"`
}
