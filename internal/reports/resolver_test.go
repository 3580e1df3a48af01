package reports

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/asc-analytics/internal/appstore"
	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func newTestClient(t *testing.T, mux *http.ServeMux) *appstore.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return appstore.NewClient(srv.URL+"/v1", staticToken("tok"), time.Second)
}

func report(id, name string) appstore.Report {
	return appstore.Report{Type: "analyticsReports", ID: id, Attributes: appstore.ReportAttributes{Name: name}}
}

func TestResolveReportRequest_FindsExisting(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/apps/123/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "200", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"data":[
			{"id":"rr-snap","attributes":{"accessType":"ONE_TIME_SNAPSHOT"}},
			{"id":"rr-1","attributes":{"accessType":"ONGOING"}}]}`)
	})
	mux.HandleFunc("/v1/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not create when a request exists")
	})

	id, err := NewResolver(newTestClient(t, mux), 0).ResolveReportRequest(context.Background(), "123", appstore.AccessTypeOngoing)
	require.NoError(t, err)
	require.Equal(t, "rr-1", id)
}

func TestResolveReportRequest_CreatesWhenMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/apps/123/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	mux.HandleFunc("/v1/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"rr-new","attributes":{"accessType":"ONGOING"}}}`)
	})

	id, err := NewResolver(newTestClient(t, mux), 0).ResolveReportRequest(context.Background(), "123", appstore.AccessTypeOngoing)
	require.NoError(t, err)
	require.Equal(t, "rr-new", id)
}

func TestResolveReportRequest_ConflictRelistsOnce(t *testing.T) {
	var lists int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/apps/123/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&lists, 1) == 1 {
			_, _ = io.WriteString(w, `{"data":[]}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[{"id":"rr-raced","attributes":{"accessType":"ONGOING"}}]}`)
	})
	mux.HandleFunc("/v1/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	id, err := NewResolver(newTestClient(t, mux), 0).ResolveReportRequest(context.Background(), "123", appstore.AccessTypeOngoing)
	require.NoError(t, err)
	require.Equal(t, "rr-raced", id)
	require.Equal(t, int32(2), atomic.LoadInt32(&lists))
}

func TestResolveReportRequest_RepeatedConflictIsFatal(t *testing.T) {
	var lists, creates int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/apps/123/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&lists, 1)
		// only a request with a different access type is visible
		_, _ = io.WriteString(w, `{"data":[{"id":"rr-snap","attributes":{"accessType":"ONE_TIME_SNAPSHOT"}}]}`)
	})
	mux.HandleFunc("/v1/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&creates, 1)
		w.WriteHeader(http.StatusConflict)
	})

	_, err := NewResolver(newTestClient(t, mux), 0).ResolveReportRequest(context.Background(), "123", appstore.AccessTypeOngoing)
	require.ErrorIs(t, err, apperr.ErrReportRequest)
	require.True(t, apperr.IsStatus(err, http.StatusConflict))
	require.Equal(t, int32(2), atomic.LoadInt32(&lists))
	require.Equal(t, int32(1), atomic.LoadInt32(&creates))
}

func TestResolveReportRequest_OtherCreateErrorsPropagate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/apps/123/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	mux.HandleFunc("/v1/analyticsReportRequests", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := NewResolver(newTestClient(t, mux), 0).ResolveReportRequest(context.Background(), "123", appstore.AccessTypeOngoing)
	require.ErrorIs(t, err, apperr.ErrReportRequest)
	require.True(t, apperr.IsStatus(err, http.StatusForbidden))
}

func TestResolveReport_ExactNameCaseInsensitive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyticsReportRequests/rr-1/reports", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.Query().Get("filter[category]"))
		_, _ = io.WriteString(w, `{"data":[
			{"id":"r-1","attributes":{"name":"App Store Discovery","category":"APP_STORE_ENGAGEMENT"}},
			{"id":"r-2","attributes":{"name":"  app downloads standard ","category":"COMMERCE"}}]}`)
	})

	rep, err := NewResolver(newTestClient(t, mux), 0).ResolveReport(context.Background(), "rr-1",
		coreagg.ReportSelector{Kind: coreagg.KindDownloads, NameExact: coreagg.ReportAppDownloads})
	require.NoError(t, err)
	require.Equal(t, "r-2", rep.ID)
}

func TestResolveReport_CategoryPreference(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyticsReportRequests/rr-1/reports", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, coreagg.CategoryAppUsage, r.URL.Query().Get("filter[category]"))
		_, _ = io.WriteString(w, `{"data":[
			{"id":"r-sessions","attributes":{"name":"App Sessions Standard"}},
			{"id":"r-install","attributes":{"name":"App Install Performance"}},
			{"id":"r-del","attributes":{"name":"App Store Installation and Deletion Standard"}}]}`)
	})

	rep, err := NewResolver(newTestClient(t, mux), 0).ResolveReport(context.Background(), "rr-1", coreagg.DefaultSelectors()[1])
	require.NoError(t, err)
	require.Equal(t, "r-del", rep.ID)
}

func TestResolveReport_NotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
		sel  coreagg.ReportSelector
	}{
		{name: "empty listing", body: `{"data":[]}`, sel: coreagg.DefaultSelectors()[1]},
		{name: "no keyword matches", body: `{"data":[{"id":"r","attributes":{"name":"Crashes"}}]}`, sel: coreagg.DefaultSelectors()[1]},
		{name: "exact name absent", body: `{"data":[{"id":"r","attributes":{"name":"Crashes"}}]}`, sel: coreagg.DefaultSelectors()[2]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/analyticsReportRequests/rr-1/reports", func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := NewResolver(newTestClient(t, mux), 0).ResolveReport(context.Background(), "rr-1", tc.sel)
			require.ErrorIs(t, err, apperr.ErrReportNotFound)
		})
	}
}

func TestSelectPreferred_DeterministicRegardlessOfOrder(t *testing.T) {
	prefer := []string{"Installation and Deletion", "Install", "Deletion"}
	orders := [][]appstore.Report{
		{report("a", "Install"), report("b", "Installation and Deletion")},
		{report("b", "Installation and Deletion"), report("a", "Install")},
	}
	for _, candidates := range orders {
		best, ok := SelectPreferred(candidates, prefer)
		require.True(t, ok)
		require.Equal(t, "Installation and Deletion", best.Attributes.Name)
	}
}

func TestSelectPreferred_StableOnTies(t *testing.T) {
	best, ok := SelectPreferred([]appstore.Report{report("first", "Deletion A"), report("second", "Deletion B")}, []string{"Deletion"})
	require.True(t, ok)
	require.Equal(t, "first", best.ID)
}

func TestScore(t *testing.T) {
	prefer := []string{"Installation and Deletion", "Install", "Deletion"}
	require.Equal(t, 100, Score("App Installation and Deletion", prefer))
	require.Equal(t, 99, Score("INSTALLS", prefer))
	require.Equal(t, 98, Score("deletion", prefer))
	require.Equal(t, 0, Score("Sessions", prefer))
	require.Equal(t, 0, Score("", prefer))
}
