package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
)

func TestRollupTotal_RecomputesRatiosFromTotals(t *testing.T) {
	summary := rollupTotal([]coreagg.OutputRecord{
		{Date: "2024-01-05", Deletions: 5, TotalSessions: 300, TotalActiveDevices: 150, AvgSessionsPerDevice: 2, UserLossRatePercent: 3.33},
		{Date: "2024-01-06", Deletions: 1, TotalSessions: 100, TotalActiveDevices: 50, AvgSessionsPerDevice: 2, UserLossRatePercent: 2},
	})

	require.Equal(t, 2, summary.Days)
	require.Equal(t, int64(6), summary.Deletions)
	require.Equal(t, int64(400), summary.TotalSessions)
	require.Equal(t, int64(200), summary.TotalActiveDevices)
	require.Equal(t, 2.0, summary.AvgSessionsPerDevice)
	require.Equal(t, 3.0, summary.UserLossRatePercent)
}

func TestRollupTotal_ZeroDevices(t *testing.T) {
	summary := rollupTotal([]coreagg.OutputRecord{{Date: "2024-01-05", Deletions: 4}})
	require.Zero(t, summary.UserLossRatePercent)
	require.Zero(t, summary.AvgSessionsPerDevice)
}
