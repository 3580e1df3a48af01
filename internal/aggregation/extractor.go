package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/aevon-lab/asc-analytics/internal/appstore"
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
	"github.com/aevon-lab/asc-analytics/internal/core/storage"
	"github.com/aevon-lab/asc-analytics/internal/metrics"
)

// ReportResolver finds the report request and the report for each selector.
type ReportResolver interface {
	ResolveReportRequest(ctx context.Context, appID, accessType string) (string, error)
	ResolveReport(ctx context.Context, requestID string, sel coreagg.ReportSelector) (appstore.Report, error)
}

// InstanceLocator lists the newest instances of a report and their segments.
type InstanceLocator interface {
	SegmentLister
	ListInstances(ctx context.Context, reportID string) []appstore.Instance
}

// RunRecorder stores the audit row of a finished run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run storage.ExtractionRun) error
}

// FetcherFactory builds a RowFetcher writing scratch files under dir.
type FetcherFactory func(dir string) RowFetcher

// ExtractorConfig holds the per-app settings of an Extractor.
type ExtractorConfig struct {
	AppID       string
	ScratchRoot string // parent of per-run scratch dirs; empty = os.TempDir()
	Selectors   []coreagg.ReportSelector
}

// Extractor runs one full extraction: resolve reports, locate instances, aggregate, emit.
type Extractor struct {
	cfg        ExtractorConfig
	resolver   ReportResolver
	locator    InstanceLocator
	newFetcher FetcherFactory
	sinks      []Sink
	runs       RunRecorder
	now        func() time.Time
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithSink adds a destination for finalized records. Sinks run in the order added.
func WithSink(s Sink) ExtractorOption {
	return func(e *Extractor) { e.sinks = append(e.sinks, s) }
}

// WithRunRecorder records every run's outcome.
func WithRunRecorder(r RunRecorder) ExtractorOption {
	return func(e *Extractor) { e.runs = r }
}

// NewExtractor creates an Extractor. Empty cfg.Selectors uses coreagg.DefaultSelectors.
func NewExtractor(cfg ExtractorConfig, resolver ReportResolver, locator InstanceLocator, newFetcher FetcherFactory, opts ...ExtractorOption) *Extractor {
	if len(cfg.Selectors) == 0 {
		cfg.Selectors = coreagg.DefaultSelectors()
	}
	e := &Extractor{
		cfg:        cfg,
		resolver:   resolver,
		locator:    locator,
		newFetcher: newFetcher,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run extracts the records of window. Kinds are processed sequentially in fixed order;
// the scratch directory is removed on every exit path.
func (e *Extractor) Run(ctx context.Context, window coreagg.DateWindow) (records []coreagg.OutputRecord, err error) {
	runID := uuid.NewString()
	started := e.now()
	log := slog.With("run_id", runID, "app_id", e.cfg.AppID)

	log.Info("[Extractor] Starting extraction", "window", window.String())

	defer func() {
		e.finish(ctx, runID, window, started, len(records), err)
	}()

	dir, err := os.MkdirTemp(e.cfg.ScratchRoot, "asc-"+runID+"-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Warn("[Extractor] Failed to remove scratch dir", "dir", dir, "error", rmErr)
			return
		}
		log.Debug("[Extractor] Cleaned up scratch dir", "dir", dir)
	}()

	instances, err := e.locate(ctx, log)
	if err != nil {
		return nil, err
	}

	agg := NewAggregator(e.locator, e.newFetcher(dir), window)
	records, err = agg.Aggregate(ctx, instances)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		log.Debug("[Extractor] Record", "date", rec.Date, "record", rec)
	}
	for _, sink := range e.sinks {
		if err := sink.Write(ctx, e.cfg.AppID, records); err != nil {
			return nil, fmt.Errorf("emit records: %w", err)
		}
	}

	log.Info("[Extractor] Extraction complete", "records", len(records), "duration", e.now().Sub(started))
	return records, nil
}

// locate resolves every selector and lists its instances. An optional selector that
// fails to resolve is skipped with a warning.
func (e *Extractor) locate(ctx context.Context, log *slog.Logger) (map[coreagg.Kind][]appstore.Instance, error) {
	requestID, err := e.resolver.ResolveReportRequest(ctx, e.cfg.AppID, appstore.AccessTypeOngoing)
	if err != nil {
		return nil, err
	}
	log.Info("[Extractor] Using report request", "request_id", requestID)

	instances := make(map[coreagg.Kind][]appstore.Instance, len(e.cfg.Selectors))
	for _, sel := range e.cfg.Selectors {
		report, err := e.resolver.ResolveReport(ctx, requestID, sel)
		if err != nil {
			if sel.Optional {
				log.Warn("[Extractor] Optional report not resolved, continuing without it", "kind", sel.Kind, "error", err)
				continue
			}
			return nil, fmt.Errorf("resolve %s report: %w", sel.Kind, err)
		}

		instances[sel.Kind] = e.locator.ListInstances(ctx, report.ID)
		log.Info("[Extractor] Resolved report",
			"kind", sel.Kind,
			"report_id", report.ID,
			"report_name", report.Attributes.Name,
			"selector", sel.Fingerprint,
			"instances", len(instances[sel.Kind]),
		)
	}
	return instances, nil
}

func (e *Extractor) finish(ctx context.Context, runID string, window coreagg.DateWindow, started time.Time, records int, runErr error) {
	finished := e.now()
	metrics.RecordExtraction(finished.Sub(started), records, ErrorType(runErr))

	if runErr != nil {
		slog.Error("[Extractor] Extraction failed", "run_id", runID, "app_id", e.cfg.AppID, "error", runErr)
	}
	if e.runs == nil {
		return
	}

	run := storage.ExtractionRun{
		ID:          runID,
		AppID:       e.cfg.AppID,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Status:      storage.RunSucceeded,
		Records:     records,
		StartedAt:   started,
		FinishedAt:  finished,
	}
	if runErr != nil {
		run.Status = storage.RunFailed
		run.Error = runErr.Error()
	}
	// the run context may already be cancelled; the audit row should still land
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.runs.RecordRun(recordCtx, run); err != nil {
		slog.Warn("[Extractor] Failed to record extraction run", "run_id", runID, "error", err)
	}
}

// ErrorType classifies a run error for metrics labels. nil yields "".
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperr.ErrSigning):
		return "signing"
	case errors.Is(err, apperr.ErrReportRequest):
		return "report_request"
	case errors.Is(err, apperr.ErrReportNotFound):
		return "report_not_found"
	case errors.Is(err, apperr.ErrTransfer):
		return "transfer"
	case apperr.StatusCode(err) != 0:
		return "http"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
