package aggregation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/asc-analytics/internal/appstore"
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/ingest"
	"github.com/aevon-lab/asc-analytics/internal/reports"
)

// fakeSegments maps instance id to segment urls; a nil entry means "not ready".
type fakeSegments map[string][]string

func (f fakeSegments) ListSegments(_ context.Context, instanceID string) ([]appstore.Segment, error) {
	urls, ok := f[instanceID]
	if !ok {
		return nil, fmt.Errorf("unexpected instance %s", instanceID)
	}
	if urls == nil {
		return nil, reports.ErrInstanceNotReady
	}
	segs := make([]appstore.Segment, 0, len(urls))
	for i, u := range urls {
		segs = append(segs, appstore.Segment{ID: fmt.Sprintf("%s-s%d", instanceID, i), Attributes: appstore.SegmentAttributes{URL: u}})
	}
	return segs, nil
}

// fakeRows maps a segment url to its rows.
type fakeRows map[string][]ingest.Row

func (f fakeRows) FetchRows(_ context.Context, url string, fn func(ingest.Row) error) error {
	rows, ok := f[url]
	if !ok {
		return errors.New("segment gone")
	}
	for _, r := range rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func mustWindow(t *testing.T, start, end string) coreagg.DateWindow {
	t.Helper()
	s, err := time.Parse(coreagg.DateLayout, start)
	require.NoError(t, err)
	e, err := time.Parse(coreagg.DateLayout, end)
	require.NoError(t, err)
	w, err := coreagg.NewDateWindow(s, e)
	require.NoError(t, err)
	return w
}

func inst(ids ...string) []appstore.Instance {
	out := make([]appstore.Instance, 0, len(ids))
	for _, id := range ids {
		out = append(out, appstore.Instance{ID: id})
	}
	return out
}

func TestAggregator_EndToEndRecord(t *testing.T) {
	segments := fakeSegments{"dl": {"u-dl"}, "del": {"u-del"}, "ses": {"u-ses"}}
	rows := fakeRows{
		"u-dl": {
			{"Date": "2024-01-05", "Download Type": "First-time download", "Counts": "100"},
			{"Date": "2024-01-05", "Download Type": "Update", "Counts": "20"},
		},
		"u-del": {{"Date": "2024-01-05", "Event": "Delete", "Counts": "5"}},
		"u-ses": {{"Date": "2024-01-05", "Sessions": "300", "Unique Devices": "150"}},
	}

	agg := NewAggregator(segments, rows, mustWindow(t, "2024-01-01", "2024-01-31"))
	recs, err := agg.Aggregate(context.Background(), map[coreagg.Kind][]appstore.Instance{
		coreagg.KindDownloads: inst("dl"),
		coreagg.KindDeletes:   inst("del"),
		coreagg.KindSessions:  inst("ses"),
	})
	require.NoError(t, err)
	require.Equal(t, []coreagg.OutputRecord{{
		Date:                 "2024-01-05",
		FirstTimeDownload:    100,
		Redownload:           0,
		Updates:              20,
		Deletions:            5,
		TotalSessions:        300,
		TotalActiveDevices:   150,
		AvgSessionsPerDevice: 2.0,
		UserLossRatePercent:  3.33,
	}}, recs)
}

func TestAggregator_DedupIdempotentAcrossInstances(t *testing.T) {
	row := ingest.Row{"Date": "2024-01-05", "Download Type": "Redownload", "Counts": "4", "Territory": "US"}
	segments := fakeSegments{"a": {"u1", "u2"}, "b": {"u3"}}
	rows := fakeRows{"u1": {row, row}, "u2": {row}, "u3": {row}}

	agg := NewAggregator(segments, rows, mustWindow(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, agg.AggregateKind(context.Background(), coreagg.KindDownloads, inst("a", "b")))
	require.Equal(t, int64(4), agg.Metrics().Get("2024-01-05", coreagg.MetricRedownload))
}

func TestAggregator_DedupScopedToOneCall(t *testing.T) {
	row := ingest.Row{"Date": "2024-01-05", "Download Type": "Redownload", "Counts": "4"}
	agg := NewAggregator(fakeSegments{"a": {"u1"}}, fakeRows{"u1": {row}}, mustWindow(t, "2024-01-01", "2024-01-31"))

	require.NoError(t, agg.AggregateKind(context.Background(), coreagg.KindDownloads, inst("a")))
	require.NoError(t, agg.AggregateKind(context.Background(), coreagg.KindDownloads, inst("a")))
	require.Equal(t, int64(8), agg.Metrics().Get("2024-01-05", coreagg.MetricRedownload))
}

func TestAggregator_NonDownloadKindsDoNotDedup(t *testing.T) {
	row := ingest.Row{"Date": "2024-01-05", "Sessions": "3", "Unique Devices": "1"}
	agg := NewAggregator(fakeSegments{"s": {"u"}}, fakeRows{"u": {row, row}}, mustWindow(t, "2024-01-01", "2024-01-31"))

	require.NoError(t, agg.AggregateKind(context.Background(), coreagg.KindSessions, inst("s")))
	require.Equal(t, int64(6), agg.Metrics().Get("2024-01-05", coreagg.MetricTotalSessions))
}

func TestAggregator_WindowBoundariesInclusive(t *testing.T) {
	mk := func(date string) ingest.Row {
		return ingest.Row{"Date": date, "Event": "Delete", "Counts": "1"}
	}
	rows := fakeRows{"u": {
		mk("2024-01-09"),
		mk("2024-01-10"),
		mk("2024-01-15T00:00:00"),
		mk("2024-01-20"),
		mk("2024-01-21"),
		mk("not-a-date"),
		mk(""),
	}}
	agg := NewAggregator(fakeSegments{"d": {"u"}}, rows, mustWindow(t, "2024-01-10", "2024-01-20"))
	require.NoError(t, agg.AggregateKind(context.Background(), coreagg.KindDeletes, inst("d")))

	require.Equal(t, []string{"2024-01-10", "2024-01-15", "2024-01-20"}, agg.Metrics().Dates())
}

func TestAggregator_SparseOutput(t *testing.T) {
	rows := fakeRows{"u": {
		{"Date": "2024-01-03", "Event": "Install", "Counts": "9"},
		{"Date": "2024-01-04", "Event": "Delete", "Counts": "2"},
	}}
	agg := NewAggregator(fakeSegments{"d": {"u"}}, rows, mustWindow(t, "2024-01-01", "2024-01-31"))
	recs, err := agg.Aggregate(context.Background(), map[coreagg.Kind][]appstore.Instance{coreagg.KindDeletes: inst("d")})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "2024-01-04", recs[0].Date)
	require.Zero(t, recs[0].UserLossRatePercent)
}

func TestAggregator_SkipsUnreadyInstancesAndEmptyURLs(t *testing.T) {
	segments := fakeSegments{"pending": nil, "ready": {"", "u"}}
	rows := fakeRows{"u": {{"Date": "2024-01-05", "Sessions": "1", "Unique Devices": "1"}}}

	agg := NewAggregator(segments, rows, mustWindow(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, agg.AggregateKind(context.Background(), coreagg.KindSessions, inst("pending", "ready")))
	require.Equal(t, int64(1), agg.Metrics().Get("2024-01-05", coreagg.MetricTotalSessions))
}

func TestAggregator_TransferFailureIsFatal(t *testing.T) {
	agg := NewAggregator(fakeSegments{"a": {"missing"}}, fakeRows{}, mustWindow(t, "2024-01-01", "2024-01-31"))
	err := agg.AggregateKind(context.Background(), coreagg.KindDownloads, inst("a"))
	require.ErrorContains(t, err, "segment gone")
}

func TestAggregator_UnknownKind(t *testing.T) {
	agg := NewAggregator(fakeSegments{}, fakeRows{}, mustWindow(t, "2024-01-01", "2024-01-31"))
	require.Error(t, agg.AggregateKind(context.Background(), coreagg.Kind("crashes"), nil))
}
