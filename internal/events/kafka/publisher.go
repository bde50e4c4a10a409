package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type Publisher struct {
	producer sarama.SyncProducer
	log      *slog.Logger
}

// NewPublisher dials the brokers, retrying while the cluster comes up.
func NewPublisher(brokers []string, clientID string, log *slog.Logger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Producer.Retry.Max = 5
	config.Net.MaxOpenRequests = 1

	var (
		producer sarama.SyncProducer
		err      error
	)
	for attempt := 1; attempt <= 5; attempt++ {
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			log.Info("kafka producer ready", slog.Any("brokers", brokers))
			return NewPublisherWithProducer(producer, log), nil
		}
		log.Warn("waiting for kafka", slog.Int("attempt", attempt), slog.Any("err", err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("kafka producer: %w", err)
}

func NewPublisherWithProducer(producer sarama.SyncProducer, log *slog.Logger) *Publisher {
	return &Publisher{producer: producer, log: log}
}

func (p *Publisher) Publish(ctx context.Context, topic, key string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s: %w", topic, err)
	}

	p.log.Debug("event published",
		slog.String("topic", topic),
		slog.String("key", key),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
