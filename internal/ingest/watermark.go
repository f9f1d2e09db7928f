package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
)

// WatermarkKey is the fixed, well-known location of the last successful
// extraction instant inside the ingestion bucket.
const WatermarkKey = "metadata/last_ingestion_timestamp.json"

// Floor is returned when no watermark exists yet. The epoch sentinel was
// chosen over "one day ago" so the first-ever run extracts all history and
// is reproducible.
var Floor = time.Unix(0, 0).UTC()

type watermarkObject struct {
	Timestamp string `json:"timestamp"`
}

// WatermarkStore persists the extraction watermark as a single JSON object
// in the ingestion bucket.
type WatermarkStore struct {
	Store  awslib.Store
	Bucket string
}

// Last returns the previous watermark, defaulting to Floor when the key or
// the bucket does not exist, or when the stored object lacks a timestamp.
// Other storage errors are returned as-is and are fatal to the stage.
func (w *WatermarkStore) Last(ctx context.Context) (time.Time, error) {
	body, err := w.Store.Get(ctx, w.Bucket, WatermarkKey)
	if err != nil {
		if errors.Is(err, awslib.ErrNoSuchKey) || errors.Is(err, awslib.ErrNoSuchBucket) {
			return Floor, nil
		}
		return time.Time{}, fmt.Errorf("reading watermark: %w", err)
	}

	var obj watermarkObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return time.Time{}, fmt.Errorf("parsing watermark object: %w", err)
	}
	if obj.Timestamp == "" {
		return Floor, nil
	}

	ts, err := time.Parse(time.RFC3339, obj.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing watermark timestamp %q: %w", obj.Timestamp, err)
	}
	return ts, nil
}

// Advance records now as the new watermark.
func (w *WatermarkStore) Advance(ctx context.Context, now time.Time) error {
	body, err := json.Marshal(watermarkObject{Timestamp: now.UTC().Format(time.RFC3339)})
	if err != nil {
		return err
	}
	if err := w.Store.Put(ctx, w.Bucket, WatermarkKey, body, "application/json"); err != nil {
		return fmt.Errorf("writing watermark: %w", err)
	}
	return nil
}
