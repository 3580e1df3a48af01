// Package ingest downloads gzip-compressed report segments and parses them as tab-delimited rows.
package ingest

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
	"github.com/aevon-lab/asc-analytics/internal/metrics"
)

const (
	// DefaultChunkSize bounds memory while streaming a segment to disk.
	DefaultChunkSize = 1 << 20

	Delimiter = '\t'
)

// Row maps a column header to its raw string value.
type Row map[string]string

// Get returns the trimmed value of column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Fetcher turns a segment URL into parsed rows via a pair of scratch files.
type Fetcher struct {
	http       *http.Client
	scratchDir string
	chunkSize  int
}

// NewFetcher creates a Fetcher writing scratch files under scratchDir.
// Segment URLs are presigned, so hc must not add provider credentials.
func NewFetcher(hc *http.Client, scratchDir string) *Fetcher {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Fetcher{http: hc, scratchDir: scratchDir, chunkSize: DefaultChunkSize}
}

// scratchPair is the compressed download and its decompressed copy for one segment.
type scratchPair struct {
	compressed   string
	decompressed string
}

func (f *Fetcher) acquire() (*scratchPair, error) {
	gz, err := os.CreateTemp(f.scratchDir, "segment-*.tsv.gz")
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	gz.Close()

	tsv, err := os.CreateTemp(f.scratchDir, "segment-*.tsv")
	if err != nil {
		os.Remove(gz.Name())
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	tsv.Close()

	return &scratchPair{compressed: gz.Name(), decompressed: tsv.Name()}, nil
}

func (p *scratchPair) release() {
	for _, path := range []string{p.compressed, p.decompressed} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("[Ingest] Failed to remove scratch file", "path", path, "error", err)
		}
	}
}

// FetchRows downloads segmentURL, decompresses it and calls fn for every data row.
// Scratch files are removed on every exit path. A truncated or corrupt gzip stream
// fails before any row is delivered. Malformed lines are skipped; an error from fn stops parsing.
func (f *Fetcher) FetchRows(ctx context.Context, segmentURL string, fn func(Row) error) error {
	pair, err := f.acquire()
	if err != nil {
		return &apperr.TransferError{Stage: "open", URL: segmentURL, Err: err}
	}
	defer pair.release()

	n, err := f.download(ctx, segmentURL, pair.compressed)
	if err != nil {
		return &apperr.TransferError{Stage: "download", URL: segmentURL, Err: err}
	}
	metrics.SegmentBytes.Add(float64(n))

	if err := decompress(pair.compressed, pair.decompressed); err != nil {
		return &apperr.TransferError{Stage: "decompress", URL: segmentURL, Err: err}
	}

	return parseFile(pair.decompressed, fn)
}

func (f *Fetcher) download(ctx context.Context, segmentURL, dst string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, segmentURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request failed: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return 0, &apperr.HTTPError{Method: http.MethodGet, URL: segmentURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := io.CopyBuffer(out, resp.Body, make([]byte, f.chunkSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write segment after %d bytes: %w", n, err)
	}
	return n, nil
}

func decompress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	_, err = io.CopyBuffer(out, zr, make([]byte, DefaultChunkSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// io.ErrUnexpectedEOF for truncation, gzip.ErrChecksum for corruption
		return fmt.Errorf("inflate: %w", err)
	}
	return nil
}

func parseFile(path string, fn func(Row) error) error {
	file, err := os.Open(path)
	if err != nil {
		return &apperr.TransferError{Stage: "open", URL: path, Err: err}
	}
	defer file.Close()

	return ParseTSV(file, fn)
}

// ParseTSV reads tab-delimited text with a header line and calls fn per data row.
// Short rows yield "" for missing columns; extra cells are ignored.
func ParseTSV(r io.Reader, fn func(Row) error) error {
	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				slog.Debug("[Ingest] Skipping malformed line", "line", pe.Line, "error", pe.Err)
				continue
			}
			return fmt.Errorf("read row: %w", err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if skipped > 0 {
		slog.Warn("[Ingest] Skipped malformed lines", "count", skipped)
	}
	return nil
}
