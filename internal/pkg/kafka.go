package pkg

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -destination=../service/mocks/mocks.go -package=mocks Community_Portal/internal/pkg Publisher,Mailer

// Publisher 通知事件的外发端口，key 用于分区
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewPublisher 未配置 broker 时返回 NopPublisher
func NewPublisher(cfg KafkaConfig) Publisher {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return NopPublisher{}
	}
	return NewKafkaProducer(cfg)
}

func NewKafkaProducer(cfg KafkaConfig) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) Close() error                                  { return nil }

func MakeKeyFromID(id uint64) string {
	return fmt.Sprintf("%d", id)
}
