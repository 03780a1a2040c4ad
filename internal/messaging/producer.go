package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Producer publishes roster lifecycle events. Subjects are derived from
// the configured prefix, e.g. "projecthub.groups".
type Producer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewProducer(url, subjectPrefix string, logger *slog.Logger) (*Producer, error) {
	nc, err := nats.Connect(url, nats.Name("projecthub"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subject := subjectPrefix + ".groups"
	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &Producer{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

func (p *Producer) SendMessage(value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		p.logger.Error("failed to marshal event", "error", err)
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Error("failed to publish event", "error", err)
		return err
	}

	p.logger.Debug("event published", "subject", p.subject)
	return nil
}

func (p *Producer) Close() error {
	p.conn.Close()
	return nil
}
