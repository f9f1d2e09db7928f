package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

const (
	processedFolder = "processed"
	historyFolder   = "history"
	factPrefix      = "fact_"
)

// Writer persists transformed tables as Parquet blobs. Dimensions get a
// "latest processed batch" blob only; facts additionally get an identical
// copy under history/, their append-only audit trail.
type Writer struct {
	Store  awslib.Store
	Bucket string
	Log    *zap.Logger
}

// Write serializes the table and stores it, returning the keys written. A
// nil or empty table is a validation error: logged and skipped, no blob.
func (w *Writer) Write(ctx context.Context, entity string, tbl *table.Table, now time.Time) ([]string, error) {
	if tbl.Empty() {
		w.Log.Warn("skipping empty transform result, no blob written",
			zap.String("entity", entity))
		return nil, nil
	}

	data, err := tbl.MarshalParquet(entity)
	if err != nil {
		return nil, fmt.Errorf("serializing %s: %w", entity, err)
	}

	stamp := now.UTC().Format("20060102150405")
	keys := []string{fmt.Sprintf("%s/%s/%s_%s.parquet", processedFolder, entity, entity, stamp)}
	if strings.HasPrefix(entity, factPrefix) {
		keys = append(keys, fmt.Sprintf("%s/%s/%s_%s.parquet", historyFolder, entity, entity, stamp))
	}

	for _, key := range keys {
		if err := w.Store.Put(ctx, w.Bucket, key, data, "application/octet-stream"); err != nil {
			return nil, err
		}
		w.Log.Info("saved transformed table",
			zap.String("entity", entity),
			zap.String("key", fmt.Sprintf("s3://%s/%s", w.Bucket, key)))
	}
	return keys, nil
}
