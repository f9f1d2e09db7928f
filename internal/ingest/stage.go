package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
	"github.com/pipeline-pioneers/etl-warehouse/internal/config"
	"github.com/pipeline-pioneers/etl-warehouse/internal/pipeline"
)

// Publisher emits a storage-write notification for each raw blob written,
// which is what triggers the transform stage.
type Publisher interface {
	PublishRawObject(ctx context.Context, n pipeline.Notification) error
}

// Stage is one ingest invocation: fetch changed rows since the watermark,
// archive each entity's batch, advance the watermark.
type Stage struct {
	Log       *zap.Logger
	Secrets   config.SecretSource
	SecretID  string
	Store     awslib.Store
	Bucket    string
	Publisher Publisher // may be nil when nothing consumes raw events
	Now       func() time.Time
}

func (s *Stage) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Run acquires credentials and a source connection, then extracts and
// archives. The connection is released on every exit path.
func (s *Stage) Run(ctx context.Context) pipeline.StageResult {
	s.Log.Info("ingestion invoked, starting data extraction")

	secret, err := config.LoadDBSecret(ctx, s.Secrets, s.SecretID)
	if err != nil {
		s.Log.Error("could not load source credentials", zap.Error(err))
		return pipeline.StageResult{Status: pipeline.StatusFailure, Message: "Could not retrieve source database credentials"}
	}

	db, err := config.NewPostgresDB(secret.ToDBConfig())
	if err != nil {
		s.Log.Error("source database connection failed", zap.Error(err))
		return pipeline.StageResult{Status: pipeline.StatusFailure, Message: "Could not connect to source database"}
	}
	defer func() {
		if cerr := config.ClosePostgres(db); cerr != nil {
			s.Log.Warn("closing source connection", zap.Error(cerr))
		}
	}()

	return s.run(ctx, &GormQuerier{DB: db})
}

// run is the connection-independent part; tests drive it with a fake
// Querier and Store.
func (s *Stage) run(ctx context.Context, q Querier) pipeline.StageResult {
	watermark := &WatermarkStore{Store: s.Store, Bucket: s.Bucket}

	since, err := watermark.Last(ctx)
	if err != nil {
		s.Log.Error("could not read watermark", zap.Error(err))
		return pipeline.StageResult{Status: pipeline.StatusFailure, Message: "Could not read extraction watermark"}
	}
	s.Log.Info("extracting rows changed since watermark", zap.Time("since", since))

	reader := &SourceReader{Querier: q, Log: s.Log}
	tables := reader.FetchTables(ctx, since)

	now := s.now()
	archiver := &Archiver{Store: s.Store, Bucket: s.Bucket}

	var archived, failed []string
	for _, entity := range Entities {
		records := tables[entity]
		if len(records) == 0 {
			continue
		}

		key, err := archiver.Archive(ctx, entity, records, now)
		if err != nil {
			failed = append(failed, entity)
			s.Log.Error("failed to write raw batch", zap.String("entity", entity), zap.Error(err))
			continue
		}
		archived = append(archived, entity)
		s.Log.Info("wrote raw batch", zap.String("entity", entity), zap.String("key", key))

		if s.Publisher != nil {
			n := pipeline.Notification{Bucket: s.Bucket, Key: key}
			if err := s.Publisher.PublishRawObject(ctx, n); err != nil {
				s.Log.Warn("failed to publish raw-object notification",
					zap.String("entity", entity), zap.Error(err))
			}
		}
	}

	// The watermark advances even on partial extraction; only a fatal
	// connection or storage error leaves it untouched.
	if err := watermark.Advance(ctx, now); err != nil {
		s.Log.Error("could not advance watermark", zap.Error(err))
		return pipeline.StageResult{Status: pipeline.StatusFailure, Message: "Could not advance extraction watermark", FailedEntities: failed}
	}

	return pipeline.Classify(archived, failed,
		"All data ingested successfully",
		"Some tables failed to ingest",
		"No table could be ingested")
}
