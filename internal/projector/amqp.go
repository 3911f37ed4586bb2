package projector

import (
	"context"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/shardkit/gateway/gateway"
)

// Exchange is the topic exchange dispatched events are published to.
const Exchange = "gateway.events"

// AMQP publishes gateway dispatch events to a RabbitMQ topic exchange. The
// routing key is the lowercased dispatch name, so consumers can bind to a
// single name such as "guild_create", or to "#" for every event.
type AMQP struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  zerolog.Logger
}

// NewAMQP dials the broker and declares the exchange.
func NewAMQP(url string, logger zerolog.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQP{conn: conn, channel: channel, logger: logger}, nil
}

// routingKey maps a dispatch name like "GUILD_CREATE" to "guild_create".
func routingKey(name string) string {
	return strings.ToLower(name)
}

// PublishRaw forwards a dispatch event's undecoded payload. Used for the
// open-world catalog of events this process has no typed model for.
func (p *AMQP) PublishRaw(ctx context.Context, name string, body []byte) error {
	return p.channel.PublishWithContext(ctx, Exchange, routingKey(name), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Type:        name,
		Body:        body,
	})
}

// PublishFields flattens a Projectable and publishes its fields as message
// headers, with the body left empty. Field order is preserved in a
// dedicated header so consumers that care about it can reconstruct it.
func (p *AMQP) PublishFields(ctx context.Context, name string, proj Projectable) error {
	keys, values := Flatten(proj)
	headers := make(amqp.Table, len(keys)+1)
	for i, key := range keys {
		headers[key] = values[i]
	}
	headers["x-field-order"] = strings.Join(keys, ",")

	return p.channel.PublishWithContext(ctx, Exchange, routingKey(name), false, false, amqp.Publishing{
		Headers:   headers,
		Timestamp: time.Now().UTC(),
		Type:      name,
	})
}

// Project routes one gateway event to the broker. Close pseudo-events and
// handshake events are not projected; they describe this process, not the
// platform.
func (p *AMQP) Project(ctx context.Context, ev gateway.Event) error {
	switch e := ev.(type) {
	case gateway.UnhandledEvent:
		return p.PublishRaw(ctx, e.Name, e.Raw)
	default:
		return nil
	}
}

// Close tears down the channel and connection.
func (p *AMQP) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("closing amqp channel")
	}
	return p.conn.Close()
}
