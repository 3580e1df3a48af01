package projection

import (
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
)

// rollupTotal sums the daily counters of records. Ratios are derived from the
// totals rather than averaged across days.
func rollupTotal(records []coreagg.OutputRecord) MetricsSummary {
	totals := make(map[coreagg.Metric]int64, len(coreagg.Metrics))
	for _, rec := range records {
		totals[coreagg.MetricFirstTimeDownload] += rec.FirstTimeDownload
		totals[coreagg.MetricRedownload] += rec.Redownload
		totals[coreagg.MetricUpdates] += rec.Updates
		totals[coreagg.MetricDeletions] += rec.Deletions
		totals[coreagg.MetricTotalSessions] += rec.TotalSessions
		totals[coreagg.MetricTotalActiveDevices] += rec.TotalActiveDevices
	}

	r := coreagg.NewOutputRecord("", totals)
	return MetricsSummary{
		Days:                 len(records),
		FirstTimeDownload:    r.FirstTimeDownload,
		Redownload:           r.Redownload,
		Updates:              r.Updates,
		Deletions:            r.Deletions,
		TotalSessions:        r.TotalSessions,
		TotalActiveDevices:   r.TotalActiveDevices,
		AvgSessionsPerDevice: r.AvgSessionsPerDevice,
		UserLossRatePercent:  r.UserLossRatePercent,
	}
}
