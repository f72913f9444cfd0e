// 계정 이벤트를 Kafka로 발행하는 클라이언트
//
// 환경변수:
//   - KAFKA_BROKERS: 콤마로 구분된 broker 주소 (비어 있으면 NopPublisher 사용)
//   - KAFKA_TOPIC (default: user_events)

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/model"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.EventsConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("missing KAFKA_BROKERS")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("missing KAFKA_TOPIC")
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           5 * time.Second,
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.AccountEvent) error {
	msg, err := eventMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s failed: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher - Kafka 미설정 시 사용
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.AccountEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// user id를 key로 사용해 같은 사용자의 이벤트가 같은 파티션으로 가도록 함
func eventMessage(event model.AccountEvent) (kafka.Message, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
		Time:  event.OccurredAt,
	}, nil
}
