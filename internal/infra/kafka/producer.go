package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"friendhub/internal/config"
	"friendhub/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var producer *kafka.Writer

const (
	EventVideoCreated = "video.created"
	EventVideoDeleted = "video.deleted"
)

// VideoEvent 视频变更事件，由 worker 消费后写入搜索索引
type VideoEvent struct {
	Type        string    `json:"type"`
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Uploader    string    `json:"uploader,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// InitProducer 初始化 Kafka 生产者
func InitProducer(cfg *config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}
	producer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	return nil
}

// SendVideoEvent 发送视频事件，同一视频的事件按 key 落到同一分区保证顺序
func SendVideoEvent(ctx context.Context, topic string, event *VideoEvent) error {
	if producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal video event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.VideoID),
		Value: payload,
	}

	if err := producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send video event: %w", err)
	}

	logger.Info("Video event sent",
		zap.String("type", event.Type),
		zap.String("video_id", event.VideoID),
		zap.String("topic", topic),
	)

	return nil
}

// EventPublisher 绑定 topic 的事件发布器
type EventPublisher struct {
	Topic string
}

func NewEventPublisher(topic string) *EventPublisher {
	return &EventPublisher{Topic: topic}
}

func (p *EventPublisher) PublishVideoEvent(ctx context.Context, event *VideoEvent) error {
	return SendVideoEvent(ctx, p.Topic, event)
}

// CloseProducer 关闭生产者
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return producer.Close()
}
