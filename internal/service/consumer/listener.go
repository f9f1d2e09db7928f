package consumer

import (
	"context"
	"encoding/json"

	"github.com/wagslane/go-rabbitmq"
	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/pipeline"
	"github.com/pipeline-pioneers/etl-warehouse/internal/service/eventservice"
)

// StageHandler runs one pipeline stage over the notifications that
// triggered it.
type StageHandler func(ctx context.Context, notifications []pipeline.Notification) pipeline.StageResult

// Listener binds a durable queue to one storage-event topic and drives a
// stage with each event it receives. One listener per stage transition:
// raw events feed transform, processed events feed load.
type Listener struct {
	consumer *rabbitmq.Consumer
	log      *zap.Logger
	topic    string
	handler  StageHandler
}

func NewListener(conn *rabbitmq.Conn, log *zap.Logger, queue, topic string, handler StageHandler) (*Listener, error) {
	consumer, err := rabbitmq.NewConsumer(
		conn,
		queue,
		rabbitmq.WithConsumerOptionsExchangeName(eventservice.ExchangeName),
		rabbitmq.WithConsumerOptionsExchangeKind(eventservice.ExchangeKindTopic),
		rabbitmq.WithConsumerOptionsExchangeDeclare,
		rabbitmq.WithConsumerOptionsExchangeDurable,
		rabbitmq.WithConsumerOptionsRoutingKey(topic),
		rabbitmq.WithConsumerOptionsQueueDurable,
		rabbitmq.WithConsumerOptionsLogging,
	)
	if err != nil {
		return nil, err
	}
	return &Listener{consumer: consumer, log: log, topic: topic, handler: handler}, nil
}

// StartListening blocks until the consumer is closed.
func (l *Listener) StartListening(ctx context.Context) error {
	l.log.Info("listener started, waiting for messages", zap.String("topic", l.topic))
	return l.consumer.Run(func(d rabbitmq.Delivery) rabbitmq.Action {
		var event eventservice.StorageEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			l.log.Error("could not parse storage event, discarding",
				zap.String("routing_key", d.RoutingKey), zap.Error(err))
			return rabbitmq.NackDiscard
		}

		n := pipeline.Notification{Bucket: event.Bucket, Key: event.Key}
		result := l.handler(ctx, []pipeline.Notification{n})
		l.log.Info("stage finished",
			zap.String("topic", l.topic),
			zap.String("status", string(result.Status)),
			zap.String("message", result.Message),
			zap.Strings("failed_entities", result.FailedEntities))
		return rabbitmq.Ack
	})
}

func (l *Listener) Close() {
	l.consumer.Close()
}
