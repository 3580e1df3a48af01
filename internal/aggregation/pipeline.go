// Package aggregation folds analytics report rows into per-date metrics and
// orchestrates extraction runs.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aevon-lab/asc-analytics/internal/appstore"
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/ingest"
	"github.com/aevon-lab/asc-analytics/internal/metrics"
	"github.com/aevon-lab/asc-analytics/internal/reports"
)

// SegmentLister lists the segments of one report instance.
type SegmentLister interface {
	ListSegments(ctx context.Context, instanceID string) ([]appstore.Segment, error)
}

// RowFetcher streams the parsed rows of one segment.
type RowFetcher interface {
	FetchRows(ctx context.Context, segmentURL string, fn func(ingest.Row) error) error
}

// Aggregator runs the shared fetch-and-parse loop for every report kind and folds
// the classified rows into one accumulator. It is not safe for concurrent use.
type Aggregator struct {
	segments SegmentLister
	rows     RowFetcher
	window   coreagg.DateWindow
	acc      *coreagg.DateMetrics
}

// NewAggregator creates an Aggregator keeping rows within window.
func NewAggregator(segments SegmentLister, rows RowFetcher, window coreagg.DateWindow) *Aggregator {
	return &Aggregator{
		segments: segments,
		rows:     rows,
		window:   window,
		acc:      coreagg.NewDateMetrics(),
	}
}

// Aggregate processes instances grouped by kind in the fixed kind order and returns
// the finalized records sorted by date.
func (a *Aggregator) Aggregate(ctx context.Context, instances map[coreagg.Kind][]appstore.Instance) ([]coreagg.OutputRecord, error) {
	for _, kind := range KindOrder {
		if err := a.AggregateKind(ctx, kind, instances[kind]); err != nil {
			return nil, err
		}
	}
	return a.Finalize(), nil
}

// AggregateKind folds every row of the given instances into the accumulator using
// the kind's strategy. Dedup state lives for this call only.
func (a *Aggregator) AggregateKind(ctx context.Context, kind coreagg.Kind, instances []appstore.Instance) error {
	spec, ok := Kinds[kind]
	if !ok {
		return fmt.Errorf("aggregate: unknown report kind %q", kind)
	}

	var seen map[string]struct{}
	if spec.Dedup {
		seen = make(map[string]struct{})
	}

	stats := kindStats{}
	for _, inst := range instances {
		segments, err := a.segments.ListSegments(ctx, inst.ID)
		if errors.Is(err, reports.ErrInstanceNotReady) {
			slog.Warn("[Aggregator] Segments not found, instance may still be processing; skipping",
				"kind", kind, "instance_id", inst.ID)
			metrics.InstancesSkipped.WithLabelValues(string(kind)).Inc()
			continue
		}
		if err != nil {
			return fmt.Errorf("list segments for %s instance %s: %w", kind, inst.ID, err)
		}

		for _, seg := range segments {
			if seg.Attributes.URL == "" {
				continue
			}
			err := a.rows.FetchRows(ctx, seg.Attributes.URL, func(row ingest.Row) error {
				a.fold(kind, spec, seen, row, &stats)
				return nil
			})
			if err != nil {
				return fmt.Errorf("%s instance %s segment %s: %w", kind, inst.ID, seg.ID, err)
			}
			metrics.SegmentsDownloaded.WithLabelValues(string(kind)).Inc()
		}
	}

	slog.Info("[Aggregator] Kind aggregated",
		"kind", kind,
		"instances", len(instances),
		"rows_counted", stats.counted,
		"rows_out_of_window", stats.outOfWindow,
		"rows_duplicate", stats.duplicate,
		"rows_invalid_date", stats.invalidDate,
		"rows_unmatched", stats.unmatched,
	)
	return nil
}

type kindStats struct {
	counted     int
	outOfWindow int
	duplicate   int
	invalidDate int
	unmatched   int
}

func (a *Aggregator) fold(kind coreagg.Kind, spec KindSpec, seen map[string]struct{}, row ingest.Row, stats *kindStats) {
	date, day, err := coreagg.ParseRowDate(row.Get(ColDate))
	if err != nil {
		stats.invalidDate++
		metrics.RecordRow(string(kind), "invalid_date")
		slog.Debug("[Aggregator] Skipping row", "kind", kind, "error", err)
		return
	}
	if !a.window.Contains(day) {
		stats.outOfWindow++
		metrics.RecordRow(string(kind), "out_of_window")
		return
	}

	if seen != nil {
		key := DedupKey(row)
		if _, dup := seen[key]; dup {
			stats.duplicate++
			metrics.RecordRow(string(kind), "duplicate")
			return
		}
		seen[key] = struct{}{}
	}

	increments := spec.Classify(row)
	if len(increments) == 0 {
		stats.unmatched++
		metrics.RecordRow(string(kind), "unmatched")
		return
	}
	for _, inc := range increments {
		a.acc.Add(date, inc.Metric, inc.Value)
	}
	stats.counted++
	metrics.RecordRow(string(kind), "counted")
}

// Metrics exposes the accumulator for inspection.
func (a *Aggregator) Metrics() *coreagg.DateMetrics {
	return a.acc
}

// Finalize converts the accumulator into date-sorted output records.
func (a *Aggregator) Finalize() []coreagg.OutputRecord {
	return a.acc.Records()
}
