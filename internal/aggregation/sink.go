package aggregation

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
	"github.com/aevon-lab/asc-analytics/internal/core/storage"
)

// Sink receives the finalized records of one run.
type Sink interface {
	Write(ctx context.Context, appID string, records []coreagg.OutputRecord) error
}

// JSONLinesSink writes one JSON object per record.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

func (s *JSONLinesSink) Write(_ context.Context, _ string, records []coreagg.OutputRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if err := s.enc.Encode(rec); err != nil {
			return fmt.Errorf("write record %s: %w", rec.Date, err)
		}
	}
	return nil
}

// StoreSink upserts records into a MetricsStore.
type StoreSink struct {
	store storage.MetricsStore
}

func NewStoreSink(store storage.MetricsStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Write(ctx context.Context, appID string, records []coreagg.OutputRecord) error {
	return s.store.UpsertDaily(ctx, appID, records)
}
