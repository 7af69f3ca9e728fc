package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
)

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *slog.Logger) (*KafkaProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, KafkaConfig())
	if err != nil {
		return nil, err
	}

	logger.Info("kafka producer initialized", "brokers", brokers, "topic", topic)

	return newKafkaProducer(producer, topic, logger), nil
}

// KafkaConfig waits for acks from all in-sync replicas and retries five times.
func KafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	return config
}

func newKafkaProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaProducer {
	return &KafkaProducer{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaProducer) SendMessage(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "message sent to kafka", "topic", p.topic, "partition", partition, "offset", offset, "key", key)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
