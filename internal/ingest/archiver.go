package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// Archiver writes one entity's fetched batch as a timestamped,
// date-partitioned JSON blob in the ingestion bucket.
type Archiver struct {
	Store  awslib.Store
	Bucket string
}

// Key builds the raw blob key:
// ingestion/{entity}/{yyyy}/{mm}/{dd}/{entity}_{RFC3339}.json
func (a *Archiver) Key(entity string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("ingestion/%s/%s/%s_%s.json",
		entity, now.Format("2006/01/02"), entity, now.Format("2006-01-02T15:04:05Z"))
}

// Archive serializes the batch as a JSON array of row objects and stores
// it, returning the key written.
func (a *Archiver) Archive(ctx context.Context, entity string, records []table.Record, now time.Time) (string, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("serializing %s batch: %w", entity, err)
	}

	key := a.Key(entity, now)
	if err := a.Store.Put(ctx, a.Bucket, key, body, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}
