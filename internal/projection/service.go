// Package projection serves stored daily metrics over HTTP.
package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/core/storage"
)

// MaxRangeDays bounds one query.
const MaxRangeDays = 366

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid metrics query")

// Service implements the read side over the metrics store.
type Service struct {
	store storage.MetricsStore
}

// NewService creates a new projection service.
func NewService(store storage.MetricsStore) *Service {
	return &Service{store: store}
}

// QueryMetrics returns stored records of req.AppID within [Start, End] plus a rolled-up summary.
func (s *Service) QueryMetrics(ctx context.Context, req MetricsQueryRequest) (*MetricsQueryResponse, error) {
	start, end, err := validate(req)
	if err != nil {
		return nil, err
	}

	records, err := s.store.QueryRange(ctx, req.AppID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query metrics for %s: %w", req.AppID, err)
	}
	if records == nil {
		records = []coreagg.OutputRecord{}
	}

	return &MetricsQueryResponse{
		AppID:   req.AppID,
		Start:   start.Format(coreagg.DateLayout),
		End:     end.Format(coreagg.DateLayout),
		Summary: rollupTotal(records),
		Records: records,
	}, nil
}

func validate(req MetricsQueryRequest) (time.Time, time.Time, error) {
	if strings.TrimSpace(req.AppID) == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: app_id is required", ErrInvalidQuery)
	}
	start, err := time.Parse(coreagg.DateLayout, req.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start must be YYYY-MM-DD", ErrInvalidQuery)
	}
	end, err := time.Parse(coreagg.DateLayout, req.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be YYYY-MM-DD", ErrInvalidQuery)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end before start", ErrInvalidQuery)
	}
	if end.Sub(start) > MaxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidQuery, MaxRangeDays)
	}
	return start, end, nil
}
