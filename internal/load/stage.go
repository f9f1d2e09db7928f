package load

import (
	"context"

	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
	"github.com/pipeline-pioneers/etl-warehouse/internal/config"
	"github.com/pipeline-pioneers/etl-warehouse/internal/pipeline"
	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// Stage is one load invocation, driven by the processed-blob notifications
// that triggered it. It reads each Parquet blob back and hands the tables
// to the Loader.
type Stage struct {
	Log             *zap.Logger
	Secrets         config.SecretSource
	SecretID        string
	Store           awslib.Store
	ProcessedBucket string
}

// Run loads the named blobs into the warehouse. An empty invocation is a
// successful no-op; the warehouse connection is only opened once at least
// one blob has been read back.
func (s *Stage) Run(ctx context.Context, notifications []pipeline.Notification) pipeline.StageResult {
	if len(notifications) == 0 {
		return pipeline.StageResult{Status: pipeline.StatusSuccess, Message: "No files to load this time"}
	}

	tables, readFailed := s.readProcessed(ctx, notifications)
	if len(tables) == 0 {
		return pipeline.StageResult{
			Status:         pipeline.StatusFailure,
			Message:        "No processed file could be read back",
			FailedEntities: readFailed,
		}
	}

	secret, err := config.LoadDBSecret(ctx, s.Secrets, s.SecretID)
	if err != nil {
		s.Log.Error("could not load warehouse credentials", zap.Error(err))
		return pipeline.StageResult{Status: pipeline.StatusFailure, Message: "Could not retrieve warehouse credentials"}
	}

	db, err := config.NewPostgresDB(secret.ToDBConfig())
	if err != nil {
		s.Log.Error("warehouse connection failed", zap.Error(err))
		return pipeline.StageResult{Status: pipeline.StatusFailure, Message: "Could not connect to warehouse"}
	}
	defer func() {
		if cerr := config.ClosePostgres(db); cerr != nil {
			s.Log.Warn("closing warehouse connection", zap.Error(cerr))
		}
	}()

	loader := &Loader{DB: db, Log: s.Log}
	result := loader.Load(ctx, tables)

	failed := append(readFailed, result.Failed...)
	if len(result.Loaded) == 0 {
		return pipeline.StageResult{
			Status:         pipeline.StatusFailure,
			Message:        "No data could be loaded into the warehouse",
			FailedEntities: failed,
		}
	}
	if len(failed) > 0 {
		return pipeline.StageResult{
			Status:         pipeline.StatusPartialFailure,
			Message:        "Some entities failed to load",
			FailedEntities: failed,
		}
	}
	if len(result.SkippedEmpty) > 0 {
		return pipeline.StageResult{
			Status:  pipeline.StatusPartialFailure,
			Message: "Some entities arrived empty and were skipped",
		}
	}
	return pipeline.StageResult{Status: pipeline.StatusSuccess, Message: "All data loaded successfully"}
}

// readProcessed fetches and decodes each notification's blob. A blob that
// cannot be read or parsed fails its entity, never the batch.
func (s *Stage) readProcessed(ctx context.Context, notifications []pipeline.Notification) (map[string]*table.Table, []string) {
	tables := make(map[string]*table.Table, len(notifications))
	var failed []string

	for _, n := range notifications {
		entity, err := n.Entity()
		if err != nil {
			s.Log.Error("skipping notification with invalid key", zap.String("key", n.Key), zap.Error(err))
			continue
		}
		body, err := s.Store.Get(ctx, s.ProcessedBucket, n.Key)
		if err != nil {
			s.Log.Error("failed to fetch processed blob", zap.String("entity", entity), zap.Error(err))
			failed = append(failed, entity)
			continue
		}
		tbl, err := table.UnmarshalParquet(body)
		if err != nil {
			s.Log.Error("failed to parse processed blob", zap.String("entity", entity), zap.Error(err))
			failed = append(failed, entity)
			continue
		}
		tables[entity] = tbl
		s.Log.Info("read processed table", zap.String("entity", entity), zap.Int("rows", len(tbl.Rows)))
	}
	return tables, failed
}
