package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCode_UnwrapsWrappedHTTPError(t *testing.T) {
	base := &HTTPError{Method: http.MethodGet, URL: "https://example.test/x", StatusCode: http.StatusNotFound, Body: "{}"}
	wrapped := fmt.Errorf("list segments: %w", base)

	require.Equal(t, http.StatusNotFound, StatusCode(wrapped))
	require.True(t, IsStatus(wrapped, http.StatusNotFound))
	require.False(t, IsStatus(wrapped, http.StatusConflict))
	require.Equal(t, 0, StatusCode(errors.New("plain")))
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"signing", &SigningError{KeyID: "K1", Err: errors.New("bad pem")}, ErrSigning},
		{"report request", &ReportRequestError{AppID: "1", AccessType: "ONGOING"}, ErrReportRequest},
		{"report not found", &ReportNotFoundError{RequestID: "r1", Criteria: "name"}, ErrReportNotFound},
		{"transfer", &TransferError{Stage: "download", URL: "https://x/y?sig=1", Err: errors.New("eof")}, ErrTransfer},
		{"parse", &ParseError{Column: "Date", Value: "x", Err: errors.New("bad")}, ErrParse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, fmt.Errorf("wrap: %w", tc.err), tc.sentinel)
		})
	}
}

func TestTransferError_RedactsPresignedQuery(t *testing.T) {
	err := &TransferError{Stage: "download", URL: "https://cdn.test/seg.gz?X-Amz-Signature=secret", Err: errors.New("boom")}
	require.NotContains(t, err.Error(), "secret")
	require.Contains(t, err.Error(), "https://cdn.test/seg.gz")
}
