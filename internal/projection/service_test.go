package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	storagemocks "github.com/aevon-lab/asc-analytics/internal/mocks/storage"
)

func TestService_QueryMetrics_EmptyRangeYieldsEmptyRecords(t *testing.T) {
	store := storagemocks.NewMetricsStore(t)
	store.EXPECT().
		QueryRange(mock.Anything, "app-1", mock.Anything, mock.Anything).
		Return([]coreagg.OutputRecord(nil), nil).
		Once()

	resp, err := NewService(store).QueryMetrics(context.Background(), MetricsQueryRequest{AppID: "app-1", Start: "2024-01-01", End: "2024-01-02"})
	require.NoError(t, err)
	require.NotNil(t, resp.Records)
	require.Empty(t, resp.Records)
	require.Equal(t, MetricsSummary{}, resp.Summary)
}

func TestService_QueryMetrics_Validation(t *testing.T) {
	svc := NewService(storagemocks.NewMetricsStore(t))

	tests := []struct {
		name string
		req  MetricsQueryRequest
	}{
		{name: "blank app", req: MetricsQueryRequest{AppID: " ", Start: "2024-01-01", End: "2024-01-02"}},
		{name: "bad start", req: MetricsQueryRequest{AppID: "a", Start: "x", End: "2024-01-02"}},
		{name: "bad end", req: MetricsQueryRequest{AppID: "a", Start: "2024-01-01", End: "2024-13-01"}},
		{name: "inverted", req: MetricsQueryRequest{AppID: "a", Start: "2024-01-02", End: "2024-01-01"}},
		{name: "too wide", req: MetricsQueryRequest{AppID: "a", Start: "2020-01-01", End: "2024-01-01"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.QueryMetrics(context.Background(), tc.req)
			require.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestService_QueryMetrics_PassesInclusiveDates(t *testing.T) {
	store := storagemocks.NewMetricsStore(t)
	store.EXPECT().
		QueryRange(mock.Anything, "app-1",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
		Return([]coreagg.OutputRecord{{Date: "2024-01-01"}}, nil).
		Once()

	resp, err := NewService(store).QueryMetrics(context.Background(), MetricsQueryRequest{AppID: "app-1", Start: "2024-01-01", End: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
}
