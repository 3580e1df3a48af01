package aggregation

import "sort"

// DateMetrics accumulates metric counters per calendar date (YYYY-MM-DD).
// It only grows: values are added, never overwritten.
type DateMetrics struct {
	byDate map[string]map[Metric]int64
}

// NewDateMetrics returns an empty accumulator.
func NewDateMetrics() *DateMetrics {
	return &DateMetrics{byDate: make(map[string]map[Metric]int64)}
}

// Add folds value into metric for date. A zero value still registers the date.
func (d *DateMetrics) Add(date string, metric Metric, value int64) {
	m, ok := d.byDate[date]
	if !ok {
		m = make(map[Metric]int64, len(Metrics))
		d.byDate[date] = m
	}
	m[metric] += value
}

// Merge adds every counter of other into d.
func (d *DateMetrics) Merge(other *DateMetrics) {
	if other == nil {
		return
	}
	for date, metrics := range other.byDate {
		for metric, value := range metrics {
			d.Add(date, metric, value)
		}
	}
}

// Get returns the accumulated value, 0 when absent.
func (d *DateMetrics) Get(date string, metric Metric) int64 {
	return d.byDate[date][metric]
}

// Len returns the number of dates with at least one contribution.
func (d *DateMetrics) Len() int {
	return len(d.byDate)
}

// Dates returns the accumulated dates in ascending order.
func (d *DateMetrics) Dates() []string {
	dates := make([]string, 0, len(d.byDate))
	for date := range d.byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Records converts the accumulator to output records sorted by date, computing derived ratios.
func (d *DateMetrics) Records() []OutputRecord {
	dates := d.Dates()
	records := make([]OutputRecord, 0, len(dates))
	for _, date := range dates {
		records = append(records, NewOutputRecord(date, d.byDate[date]))
	}
	return records
}
