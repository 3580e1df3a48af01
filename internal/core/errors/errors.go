package errors

import (
	"errors"
	"fmt"
)

const (
	HttpInternalError     = "internal_error"
	HttpInvalidQueryError = "invalid_query"
	HttpNotFoundError     = "not_found"
)

// ErrorResponse is the error response body for the query API.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Sentinels for errors.Is matching across the pipeline.
var (
	ErrSigning        = errors.New("signing failed")
	ErrReportRequest  = errors.New("report request unavailable")
	ErrReportNotFound = errors.New("report not found")
	ErrTransfer       = errors.New("segment transfer failed")
	ErrParse          = errors.New("row parse failed")
)

// SigningError reports that the configured private key could not produce a credential.
type SigningError struct {
	KeyID string
	Err   error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("sign token with key %q: %v", e.KeyID, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

func (e *SigningError) Is(target error) bool { return target == ErrSigning }

// HTTPError is returned for any non-2xx provider response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// ReportRequestError means no analytics report request could be found or created.
type ReportRequestError struct {
	AppID      string
	AccessType string
	Err        error
}

func (e *ReportRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report request for app %s (%s): %v", e.AppID, e.AccessType, e.Err)
	}
	return fmt.Sprintf("report request for app %s (%s) not resolvable", e.AppID, e.AccessType)
}

func (e *ReportRequestError) Unwrap() error { return e.Err }

func (e *ReportRequestError) Is(target error) bool { return target == ErrReportRequest }

// ReportNotFoundError means no report under a request satisfied the lookup criteria.
type ReportNotFoundError struct {
	RequestID string
	Criteria  string
}

func (e *ReportNotFoundError) Error() string {
	return fmt.Sprintf("no report matching %s under request %s", e.Criteria, e.RequestID)
}

func (e *ReportNotFoundError) Is(target error) bool { return target == ErrReportNotFound }

// TransferError wraps download and decompression failures for one segment.
type TransferError struct {
	Stage string // download | decompress | open
	URL   string
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("segment %s failed (%s): %v", e.Stage, redactURL(e.URL), e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Is(target error) bool { return target == ErrTransfer }

// ParseError is row-scoped: the row is skipped, the segment continues.
type ParseError struct {
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("column %q value %q: %v", e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StatusCode returns the HTTP status carried by err, or 0 if err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	return StatusCode(err) == code
}

// Segment URLs are presigned; keep the query string out of logs.
func redactURL(u string) string {
	for i := 0; i < len(u); i++ {
		if u[i] == '?' {
			return u[:i] + "?..."
		}
	}
	return u
}
