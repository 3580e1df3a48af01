package aggregation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NewOutputRecord builds the record for one date from its counters.
func NewOutputRecord(date string, m map[Metric]int64) OutputRecord {
	rec := OutputRecord{
		Date:               date,
		FirstTimeDownload:  m[MetricFirstTimeDownload],
		Redownload:         m[MetricRedownload],
		Updates:            m[MetricUpdates],
		Deletions:          m[MetricDeletions],
		TotalSessions:      m[MetricTotalSessions],
		TotalActiveDevices: m[MetricTotalActiveDevices],
	}
	rec.AvgSessionsPerDevice = Ratio(rec.TotalSessions, rec.TotalActiveDevices, decimal.NewFromInt(1))
	rec.UserLossRatePercent = Ratio(rec.Deletions, rec.TotalActiveDevices, hundred)
	return rec
}

// Ratio returns numerator/denominator*scale rounded to 2 places (half away from zero).
// A zero denominator yields 0.
func Ratio(numerator, denominator int64, scale decimal.Decimal) float64 {
	if denominator == 0 {
		return 0
	}
	v := decimal.NewFromInt(numerator).
		Mul(scale).
		DivRound(decimal.NewFromInt(denominator), 2)
	f, _ := v.Float64()
	return f
}

// ParseCount parses a provider count cell. Thousands separators are stripped;
// empty or non-numeric values count as 0.
func ParseCount(value string) int64 {
	s := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
