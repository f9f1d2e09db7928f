package eventservice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wagslane/go-rabbitmq"
	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/pipeline"
)

// MQPublisher emits pipeline storage events on the topic exchange. It
// satisfies the ingest and transform stages' Publisher interfaces.
type MQPublisher struct {
	pub *rabbitmq.Publisher
	log *zap.Logger
}

func NewMQPublisher(pub *rabbitmq.Publisher, log *zap.Logger) *MQPublisher {
	return &MQPublisher{pub: pub, log: log}
}

func (p *MQPublisher) PublishRawObject(ctx context.Context, n pipeline.Notification) error {
	return p.publishStorageEvent(ctx, RawObjectTopic, n)
}

func (p *MQPublisher) PublishProcessedObject(ctx context.Context, n pipeline.Notification) error {
	return p.publishStorageEvent(ctx, ProcessedObjectTopic, n)
}

func (p *MQPublisher) publishStorageEvent(ctx context.Context, topic string, n pipeline.Notification) error {
	e := StorageEvent{
		BaseEvent: BaseEvent{
			EventID:    uuid.New().String(),
			EventType:  "storage.object.created",
			OccurredAt: time.Now().UTC(),
			Version:    "1",
			Source:     "etl-warehouse",
		},
		Bucket: n.Bucket,
		Key:    n.Key,
	}

	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	p.log.Info("publishing storage event",
		zap.String("topic", topic),
		zap.String("key", n.Key))

	return p.pub.PublishWithContext(
		ctx,
		body,
		[]string{topic},
		rabbitmq.WithPublishOptionsContentType("application/json"),
		rabbitmq.WithPublishOptionsExchange(ExchangeName),
		rabbitmq.WithPublishOptionsPersistentDelivery,
	)
}
