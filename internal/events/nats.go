package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSProducer publishes every event on one subject; the key goes into the
// Nats-Msg-Key header.
type NATSProducer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATSProducer(url, subject string, logger *slog.Logger) (*NATSProducer, error) {
	nc, err := nats.Connect(url,
		nats.Name("results-service"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &NATSProducer{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

func (p *NATSProducer) SendMessage(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set("Nats-Msg-Key", key)
	msg.Data = data

	return p.conn.PublishMsg(msg)
}

func (p *NATSProducer) Close() error {
	return p.conn.Drain()
}
