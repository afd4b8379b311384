package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/talentsync/interviewd/internal/model"
)

// Envelope is one outbound email as handed to the transport.
type Envelope struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
	Priority string `json:"priority"`
}

// Transport delivers an envelope and returns the transport message id.
// It is the one dependency the dispatcher retries against.
type Transport interface {
	Deliver(ctx context.Context, envelope Envelope) (string, error)
}

// AMQPTransport publishes envelopes to the mail gateway exchange. Delivery
// to the final mailbox is the gateway's concern; a successful publish is a
// successful delivery from the dispatcher's point of view.
type AMQPTransport struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPTransport(amqpURL, exchange string) (*AMQPTransport, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial amqp: %v", model.ErrTransport, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: open channel: %v", model.ErrTransport, err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: declare exchange: %v", model.ErrTransport, err)
	}
	return &AMQPTransport{conn: conn, channel: ch, exchange: exchange}, nil
}

func (t *AMQPTransport) Deliver(_ context.Context, envelope Envelope) (string, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: marshal envelope: %v", model.ErrTransport, err)
	}

	messageID := uuid.NewString()
	err = t.channel.Publish(t.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   messageID,
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("%w: publish: %v", model.ErrTransport, err)
	}

	return messageID, nil
}

func (t *AMQPTransport) Close() {
	if t.channel != nil {
		t.channel.Close()
	}
	if t.conn != nil {
		t.conn.Close()
	}
}

// LogTransport is the development fallback: envelopes are logged instead of
// delivered.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Deliver(_ context.Context, envelope Envelope) (string, error) {
	t.logger.Info("Email delivery skipped (log transport)",
		zap.String("to", envelope.To),
		zap.String("subject", envelope.Subject),
	)
	return uuid.NewString(), nil
}
