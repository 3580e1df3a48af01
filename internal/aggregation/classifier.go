package aggregation

import (
	"strings"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/ingest"
)

// Column names consumed from provider report rows.
const (
	ColDate          = "Date"
	ColDownloadType  = "Download Type"
	ColCounts        = "Counts"
	ColUniqueDevices = "Unique Devices"
	ColEvent         = "Event"
	ColSessions      = "Sessions"

	EventDelete = "Delete"
)

// DedupColumns is the ordered column tuple identifying one logical download fact.
var DedupColumns = []string{
	"Date",
	"App Name",
	"App Apple Identifier",
	"Event",
	"Download Type",
	"App Version",
	"Device",
	"Platform Version",
	"Source Type",
	"Source Info",
	"Campaign",
	"Page Type",
	"Page Title",
	"App Download Date",
	"Territory",
	"Unique Devices",
}

// Classifier maps one in-window row to the metric increments it contributes.
// A nil result means the row contributes to no metric.
type Classifier func(row ingest.Row) []coreagg.Increment

// KindSpec is the per-kind strategy plugged into the shared fetch-and-parse pipeline.
type KindSpec struct {
	Classify Classifier
	Dedup    bool // skip rows whose DedupKey was already seen in this call
}

// Kinds maps each report kind to its strategy.
var Kinds = map[coreagg.Kind]KindSpec{
	coreagg.KindDownloads: {Classify: ClassifyDownload, Dedup: true},
	coreagg.KindDeletes:   {Classify: ClassifyDelete},
	coreagg.KindSessions:  {Classify: ClassifySession},
}

// KindOrder is the fixed processing order of report kinds.
var KindOrder = []coreagg.Kind{coreagg.KindDownloads, coreagg.KindDeletes, coreagg.KindSessions}

// ClassifyDownload buckets a row by its Download Type. The count comes from Counts,
// falling back to Unique Devices when Counts is empty.
func ClassifyDownload(row ingest.Row) []coreagg.Increment {
	metric, ok := DownloadMetric(row.Get(ColDownloadType))
	if !ok {
		return nil
	}
	raw := row.Get(ColCounts)
	if raw == "" {
		raw = row.Get(ColUniqueDevices)
	}
	return []coreagg.Increment{{Metric: metric, Value: coreagg.ParseCount(raw)}}
}

// DownloadMetric maps a Download Type value to its metric. "update" is tested first.
func DownloadMetric(downloadType string) (coreagg.Metric, bool) {
	t := strings.ToLower(downloadType)
	switch {
	case strings.Contains(t, "update"):
		return coreagg.MetricUpdates, true
	case strings.Contains(t, "first") && strings.Contains(t, "time"):
		return coreagg.MetricFirstTimeDownload, true
	case strings.Contains(t, "redownload"):
		return coreagg.MetricRedownload, true
	default:
		return "", false
	}
}

// ClassifyDelete counts rows whose Event is exactly "Delete".
func ClassifyDelete(row ingest.Row) []coreagg.Increment {
	if row.Get(ColEvent) != EventDelete {
		return nil
	}
	return []coreagg.Increment{{Metric: coreagg.MetricDeletions, Value: coreagg.ParseCount(row.Get(ColCounts))}}
}

// ClassifySession contributes sessions and active devices.
func ClassifySession(row ingest.Row) []coreagg.Increment {
	return []coreagg.Increment{
		{Metric: coreagg.MetricTotalSessions, Value: coreagg.ParseCount(row.Get(ColSessions))},
		{Metric: coreagg.MetricTotalActiveDevices, Value: coreagg.ParseCount(row.Get(ColUniqueDevices))},
	}
}

// DedupKey joins the DedupColumns values of row.
func DedupKey(row ingest.Row) string {
	var b strings.Builder
	for i, col := range DedupColumns {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(row.Get(col))
	}
	return b.String()
}
