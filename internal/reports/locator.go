package reports

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/aevon-lab/asc-analytics/internal/appstore"
	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
)

// DefaultMaxInstances bounds how many of a report's newest instances are processed.
const DefaultMaxInstances = 5

// ErrInstanceNotReady is returned when an instance's segments are not yet listable (404).
var ErrInstanceNotReady = errors.New("report instance not yet processed")

// Locator lists report instances and their segments.
type Locator struct {
	client       *appstore.Client
	pageLimit    int
	maxInstances int
}

// NewLocator creates a Locator keeping the newest maxInstances per report.
func NewLocator(client *appstore.Client, pageLimit, maxInstances int) *Locator {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	if maxInstances <= 0 {
		maxInstances = DefaultMaxInstances
	}
	return &Locator{client: client, pageLimit: pageLimit, maxInstances: maxInstances}
}

// ListInstances returns the newest instances of reportID, newest first. A failed or
// empty listing yields an empty slice and a warning; it never fails the run.
func (l *Locator) ListInstances(ctx context.Context, reportID string) []appstore.Instance {
	if reportID == "" {
		return nil
	}

	instances, err := appstore.ListAll[appstore.InstanceAttributes](ctx, l.client,
		l.client.URL("analyticsReports", reportID, "instances"),
		url.Values{"limit": {strconv.Itoa(l.pageLimit)}})
	if err != nil {
		slog.Warn("[Locator] Failed to list instances", "report_id", reportID, "error", err)
		return nil
	}
	if len(instances) == 0 {
		slog.Warn("[Locator] Report has no instances yet", "report_id", reportID)
		return nil
	}

	SortNewestFirst(instances)
	if len(instances) > l.maxInstances {
		slog.Debug("[Locator] Keeping newest instances", "report_id", reportID, "total", len(instances), "kept", l.maxInstances)
		instances = instances[:l.maxInstances]
	}
	return instances
}

// SortNewestFirst orders instances by periodEnd descending; a missing periodEnd sorts last.
func SortNewestFirst(instances []appstore.Instance) {
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].Attributes.PeriodEndTime().After(instances[j].Attributes.PeriodEndTime())
	})
}

// ListSegments returns the segments of instanceID. A 404 maps to ErrInstanceNotReady;
// any other failure propagates.
func (l *Locator) ListSegments(ctx context.Context, instanceID string) ([]appstore.Segment, error) {
	segments, err := appstore.ListAll[appstore.SegmentAttributes](ctx, l.client,
		l.client.URL("analyticsReportInstances", instanceID, "segments"),
		url.Values{"limit": {strconv.Itoa(l.pageLimit)}})
	if apperr.IsStatus(err, http.StatusNotFound) {
		return nil, errors.Join(ErrInstanceNotReady, err)
	}
	if err != nil {
		return nil, err
	}
	return segments, nil
}
