package transform

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
	"github.com/pipeline-pioneers/etl-warehouse/internal/pipeline"
	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// Publisher emits a storage-write notification for each processed blob,
// which is what triggers the load stage. History copies are not announced.
type Publisher interface {
	PublishProcessedObject(ctx context.Context, n pipeline.Notification) error
}

// Stage is one transform invocation, driven by the raw-blob notifications
// that triggered it. Entities are processed sequentially; one failing
// entity never aborts the others.
type Stage struct {
	Log             *zap.Logger
	Store           awslib.Store
	IngestionBucket string
	ProcessedBucket string
	Publisher       Publisher // may be nil when nothing consumes processed events
	Now             func() time.Time
}

func (s *Stage) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Run decodes the raw batches named by the notifications, dispatches each
// through the registry, writes the results, and derives dim_date from
// everything that arrived.
func (s *Stage) Run(ctx context.Context, notifications []pipeline.Notification) pipeline.StageResult {
	if len(notifications) == 0 {
		return pipeline.StageResult{Status: pipeline.StatusSuccess, Message: "No files to process this time"}
	}

	batches := map[string][]table.Record{}
	var failed, succeeded []string

	for _, n := range notifications {
		entity, err := n.Entity()
		if err != nil {
			s.Log.Error("skipping notification with invalid key", zap.String("key", n.Key), zap.Error(err))
			continue
		}
		records, err := s.readRawBatch(ctx, n.Key)
		if err != nil {
			s.Log.Error("failed to read raw batch", zap.String("entity", entity), zap.Error(err))
			failed = append(failed, entity)
			continue
		}
		batches[entity] = records
		s.Log.Info("processing raw batch", zap.String("entity", entity), zap.Int("rows", len(records)))
	}

	now := s.now()
	writer := &Writer{Store: s.Store, Bucket: s.ProcessedBucket, Log: s.Log}

	for _, entity := range sortedKeys(batches) {
		spec, ok := Lookup(entity)
		if !ok {
			s.Log.Info("no transform defined, skipping entity", zap.String("entity", entity))
			continue
		}

		inputs, err := s.collectInputs(ctx, spec, batches)
		if err != nil {
			s.Log.Error("could not assemble transform inputs",
				zap.String("entity", entity), zap.Error(err))
			failed = append(failed, entity)
			continue
		}

		tbl, err := spec.Fn(inputs)
		if err != nil {
			s.Log.Error("transform failed", zap.String("entity", entity), zap.Error(err))
			failed = append(failed, entity)
			continue
		}
		if tbl.Empty() {
			s.Log.Warn("transform produced nothing, skipping", zap.String("entity", entity))
			continue
		}

		if s.writeAndAnnounce(ctx, writer, spec.Output, tbl, now) {
			succeeded = append(succeeded, entity)
		} else {
			failed = append(failed, entity)
		}
	}

	// dim_date is derived from every dataset in the batch, not from any
	// single entity.
	if len(batches) > 0 {
		datasets := make([][]table.Record, 0, len(batches))
		for _, entity := range sortedKeys(batches) {
			datasets = append(datasets, batches[entity])
		}
		tbl, err := BuildDimDate(datasets...)
		switch {
		case err != nil:
			s.Log.Error("dim_date transform failed", zap.Error(err))
			failed = append(failed, "dim_date")
		case tbl.Empty():
			s.Log.Warn("no date-bearing columns found in this batch")
		case s.writeAndAnnounce(ctx, writer, "dim_date", tbl, now):
			succeeded = append(succeeded, "dim_date")
		default:
			failed = append(failed, "dim_date")
		}
	}

	return pipeline.Classify(succeeded, failed,
		"Transformation complete",
		"Some entities failed to transform",
		"No entity could be transformed")
}

func (s *Stage) writeAndAnnounce(ctx context.Context, writer *Writer, output string, tbl *table.Table, now time.Time) bool {
	keys, err := writer.Write(ctx, output, tbl, now)
	if err != nil {
		s.Log.Error("failed to write processed blob", zap.String("entity", output), zap.Error(err))
		return false
	}
	if s.Publisher == nil || len(keys) == 0 {
		return true
	}
	n := pipeline.Notification{Bucket: s.ProcessedBucket, Key: keys[0]}
	if err := s.Publisher.PublishProcessedObject(ctx, n); err != nil {
		s.Log.Warn("failed to publish processed-object notification",
			zap.String("entity", output), zap.Error(err))
	}
	return true
}

// collectInputs gathers every entity a transform requires. Inputs that did
// not arrive in this batch are taken from their most recent raw blob.
func (s *Stage) collectInputs(ctx context.Context, spec Spec, batches map[string][]table.Record) (map[string][]table.Record, error) {
	inputs := make(map[string][]table.Record, len(spec.Inputs))
	for _, name := range spec.Inputs {
		if records, ok := batches[name]; ok {
			inputs[name] = records
			continue
		}
		records, err := s.readLatestRawBatch(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetching latest %s batch: %w", name, err)
		}
		inputs[name] = records
	}
	return inputs, nil
}

func (s *Stage) readRawBatch(ctx context.Context, key string) ([]table.Record, error) {
	body, err := s.Store.Get(ctx, s.IngestionBucket, key)
	if err != nil {
		return nil, err
	}
	return table.DecodeRecords(body)
}

// readLatestRawBatch finds the most recent archived blob for an entity.
// Keys embed a zero-padded date partition and an RFC3339 timestamp, so the
// lexicographically greatest key is the newest.
func (s *Stage) readLatestRawBatch(ctx context.Context, entity string) ([]table.Record, error) {
	keys, err := s.Store.List(ctx, s.IngestionBucket, fmt.Sprintf("ingestion/%s/", entity))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no raw batch has ever been ingested for %s", entity)
	}
	return s.readRawBatch(ctx, keys[len(keys)-1])
}

func sortedKeys(m map[string][]table.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
