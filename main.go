package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
	"github.com/pipeline-pioneers/etl-warehouse/internal/config"
	"github.com/pipeline-pioneers/etl-warehouse/internal/httpserver"
	"github.com/pipeline-pioneers/etl-warehouse/internal/ingest"
	"github.com/pipeline-pioneers/etl-warehouse/internal/load"
	"github.com/pipeline-pioneers/etl-warehouse/internal/service/consumer"
	"github.com/pipeline-pioneers/etl-warehouse/internal/service/eventservice"
	"github.com/pipeline-pioneers/etl-warehouse/internal/transform"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	secrets, err := awslib.NewSecretsManager(ctx, cfg.Region)
	if err != nil {
		logger.Fatal("secrets manager init failed", zap.Error(err))
	}

	store, err := awslib.NewS3Store(ctx, cfg.Region)
	if err != nil {
		logger.Fatal("s3 client init failed", zap.Error(err))
	}

	warehouseSecret, err := config.LoadDBSecret(ctx, secrets, cfg.WarehouseSecretID)
	if err != nil {
		logger.Fatal("could not load warehouse credentials", zap.Error(err))
	}
	if err := config.RunMigrations(warehouseSecret.ToDBConfig()); err != nil {
		logger.Fatal("warehouse migration failed", zap.Error(err))
	}
	logger.Info("warehouse schema up to date")

	conn, err := config.RabbitConn(cfg.MQ)
	if err != nil {
		logger.Fatal("rabbitmq connection failed", zap.Error(err))
	}
	defer conn.Close()

	rawPub, err := config.RabbitPublisher(conn)
	if err != nil {
		logger.Fatal("rabbitmq publisher failed", zap.Error(err))
	}
	defer rawPub.Close()
	publisher := eventservice.NewMQPublisher(rawPub, logger)

	ingestStage := &ingest.Stage{
		Log:       logger,
		Secrets:   secrets,
		SecretID:  cfg.SourceSecretID,
		Store:     store,
		Bucket:    cfg.IngestionBucket,
		Publisher: publisher,
	}
	transformStage := &transform.Stage{
		Log:             logger,
		Store:           store,
		IngestionBucket: cfg.IngestionBucket,
		ProcessedBucket: cfg.ProcessedBucket,
		Publisher:       publisher,
	}
	loadStage := &load.Stage{
		Log:             logger,
		Secrets:         secrets,
		SecretID:        cfg.WarehouseSecretID,
		Store:           store,
		ProcessedBucket: cfg.ProcessedBucket,
	}

	transformListener, err := consumer.NewListener(conn, logger,
		"etl.transform", eventservice.RawObjectTopic, transformStage.Run)
	if err != nil {
		logger.Fatal("transform listener failed", zap.Error(err))
	}
	defer transformListener.Close()

	loadListener, err := consumer.NewListener(conn, logger,
		"etl.load", eventservice.ProcessedObjectTopic, loadStage.Run)
	if err != nil {
		logger.Fatal("load listener failed", zap.Error(err))
	}
	defer loadListener.Close()

	go func() {
		if err := transformListener.StartListening(ctx); err != nil {
			logger.Error("transform listener stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := loadListener.StartListening(ctx); err != nil {
			logger.Error("load listener stopped", zap.Error(err))
		}
	}()

	r := httpserver.NewRouter(ingestStage, logger)
	logger.Info("API listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
