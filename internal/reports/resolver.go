// Package reports resolves the provider-side report request, the reports under it
// and their materialized instances.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/aevon-lab/asc-analytics/internal/appstore"
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
)

// DefaultPageLimit is the page size requested from every listing endpoint.
const DefaultPageLimit = 200

// Resolver finds (or creates) the report request for an app and picks reports under it.
type Resolver struct {
	client    *appstore.Client
	pageLimit int
}

// NewResolver creates a Resolver. A non-positive pageLimit uses DefaultPageLimit.
func NewResolver(client *appstore.Client, pageLimit int) *Resolver {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	return &Resolver{client: client, pageLimit: pageLimit}
}

func (r *Resolver) limit() url.Values {
	return url.Values{"limit": {strconv.Itoa(r.pageLimit)}}
}

// ResolveReportRequest returns the id of the app's report request with accessType,
// creating it when none exists. A 409 on create triggers exactly one re-list; the
// re-listed request must carry the same accessType or the call fails.
func (r *Resolver) ResolveReportRequest(ctx context.Context, appID, accessType string) (string, error) {
	id, err := r.findRequest(ctx, appID, accessType)
	if err != nil {
		return "", &apperr.ReportRequestError{AppID: appID, AccessType: accessType, Err: err}
	}
	if id != "" {
		slog.Debug("[Resolver] Found existing report request", "app_id", appID, "request_id", id)
		return id, nil
	}

	slog.Info("[Resolver] Creating report request", "app_id", appID, "access_type", accessType)
	var doc appstore.Document[appstore.ReportRequestAttributes]
	err = r.client.Post(ctx, r.client.URL("analyticsReportRequests"), appstore.NewCreateReportRequestBody(appID, accessType), &doc)
	if err == nil {
		if doc.Data.ID == "" {
			return "", &apperr.ReportRequestError{AppID: appID, AccessType: accessType, Err: fmt.Errorf("create response carried no id")}
		}
		slog.Info("[Resolver] Created report request", "app_id", appID, "request_id", doc.Data.ID)
		return doc.Data.ID, nil
	}
	if !apperr.IsStatus(err, http.StatusConflict) {
		return "", &apperr.ReportRequestError{AppID: appID, AccessType: accessType, Err: err}
	}

	slog.Warn("[Resolver] Report request already exists, re-listing once", "app_id", appID)
	id, lerr := r.findRequest(ctx, appID, accessType)
	if lerr != nil {
		return "", &apperr.ReportRequestError{AppID: appID, AccessType: accessType, Err: lerr}
	}
	if id == "" {
		return "", &apperr.ReportRequestError{AppID: appID, AccessType: accessType, Err: err}
	}
	return id, nil
}

func (r *Resolver) findRequest(ctx context.Context, appID, accessType string) (string, error) {
	requests, err := appstore.ListAll[appstore.ReportRequestAttributes](ctx, r.client,
		r.client.URL("apps", appID, "analyticsReportRequests"), r.limit())
	if err != nil {
		return "", fmt.Errorf("list report requests: %w", err)
	}
	for _, req := range requests {
		if req.Attributes.AccessType == accessType {
			return req.ID, nil
		}
	}
	return "", nil
}

// ResolveReport picks the report under requestID described by sel. Reports are listed
// filtered by sel.Category when set. An exact name match wins; otherwise candidates
// are ranked by Score against sel.Prefer.
func (r *Resolver) ResolveReport(ctx context.Context, requestID string, sel coreagg.ReportSelector) (appstore.Report, error) {
	params := r.limit()
	if sel.Category != "" {
		params.Set("filter[category]", sel.Category)
	}

	candidates, err := appstore.ListAll[appstore.ReportAttributes](ctx, r.client,
		r.client.URL("analyticsReportRequests", requestID, "reports"), params)
	if err != nil {
		return appstore.Report{}, fmt.Errorf("list reports for request %s: %w", requestID, err)
	}

	notFound := &apperr.ReportNotFoundError{RequestID: requestID, Criteria: criteria(sel)}
	if len(candidates) == 0 {
		return appstore.Report{}, notFound
	}

	if sel.NameExact != "" {
		want := strings.ToLower(strings.TrimSpace(sel.NameExact))
		for _, c := range candidates {
			if strings.ToLower(strings.TrimSpace(c.Attributes.Name)) == want {
				return c, nil
			}
		}
	}

	if len(sel.Prefer) > 0 {
		if best, ok := SelectPreferred(candidates, sel.Prefer); ok {
			return best, nil
		}
	}
	return appstore.Report{}, notFound
}

// Score returns 100 minus the index of the first keyword contained in name
// (case-insensitive), or 0 when none matches.
func Score(name string, prefer []string) int {
	lower := strings.ToLower(name)
	for i, keyword := range prefer {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return 100 - i
		}
	}
	return 0
}

// SelectPreferred returns the highest scoring candidate. Ties keep input order.
// ok is false when the best score is 0.
func SelectPreferred(candidates []appstore.Report, prefer []string) (appstore.Report, bool) {
	if len(candidates) == 0 {
		return appstore.Report{}, false
	}
	ranked := make([]appstore.Report, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i].Attributes.Name, prefer) > Score(ranked[j].Attributes.Name, prefer)
	})
	if Score(ranked[0].Attributes.Name, prefer) <= 0 {
		return appstore.Report{}, false
	}
	return ranked[0], true
}

func criteria(sel coreagg.ReportSelector) string {
	var parts []string
	if sel.Category != "" {
		parts = append(parts, "category="+sel.Category)
	}
	if sel.NameExact != "" {
		parts = append(parts, fmt.Sprintf("name=%q", sel.NameExact))
	}
	if len(sel.Prefer) > 0 {
		parts = append(parts, fmt.Sprintf("prefer=%q", sel.Prefer))
	}
	return strings.Join(parts, " ")
}
