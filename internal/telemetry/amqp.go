package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/wire"
)

const (
	exchangeName   = "telemetry" // topic
	positionKey    = "position.#"
	reconnInterval = 5 * time.Second
)

// AMQPSource is a Source fed by a RabbitMQ topic exchange. It binds an
// exclusive, auto-deleted queue to exchangeName and keeps reconnecting,
// including when the broker is down at startup, until ctx is done.
type AMQPSource struct {
	url   string
	retry time.Duration
	log   *slog.Logger
}

// NewAMQPSource returns an AMQPSource for the broker at url.
func NewAMQPSource(url string, log *slog.Logger) *AMQPSource {
	return &AMQPSource{url: url, retry: reconnInterval, log: log}
}

// Subscribe fails only on a malformed URL. The first connection is tried
// synchronously so positions published right after Subscribe returns are
// not missed; if the broker is unavailable the source keeps retrying in the
// background.
func (s *AMQPSource) Subscribe(ctx context.Context) (<-chan domain.Position, error) {
	if _, err := amqp.ParseURI(s.url); err != nil {
		return nil, fmt.Errorf("telemetry.AMQPSource.Subscribe: %w", err)
	}

	conn, deliveries, err := s.connect()
	if err != nil {
		s.log.WarnContext(ctx, "telemetry broker unavailable, retrying", "error", err, "retry_in", s.retry)
	}

	out := make(chan domain.Position, 64)
	go func() {
		defer close(out)
		for {
			if conn == nil {
				if conn, deliveries = s.reconnect(ctx); conn == nil {
					return
				}
			}
			s.consume(ctx, deliveries, out)
			_ = conn.Close()
			conn = nil
			if ctx.Err() != nil {
				return
			}
			s.log.WarnContext(ctx, "telemetry connection lost, reconnecting", "retry_in", s.retry)
		}
	}()
	return out, nil
}

// reconnect retries connect every s.retry until it succeeds or ctx is done,
// in which case it returns a nil connection.
func (s *AMQPSource) reconnect(ctx context.Context) (*amqp.Connection, <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(s.retry):
		}
		conn, deliveries, err := s.connect()
		if err == nil {
			s.log.InfoContext(ctx, "telemetry connected")
			return conn, deliveries
		}
		s.log.WarnContext(ctx, "telemetry connect failed", "error", err)
	}
}

func (s *AMQPSource) connect() (*amqp.Connection, <-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, positionKey, exchangeName, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue bind: %w", err)
	}
	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("consume: %w", err)
	}
	return conn, deliveries, nil
}

// consume forwards deliveries until the channel closes or ctx is done.
func (s *AMQPSource) consume(ctx context.Context, deliveries <-chan amqp.Delivery, out chan<- domain.Position) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			p, ok := decodeDelivery(d.Body, d.Timestamp)
			if !ok {
				s.log.DebugContext(ctx, "telemetry message skipped", "routing_key", d.RoutingKey)
				continue
			}
			select {
			case out <- p:
			case <-ctx.Done():
				return
			}
		}
	}
}

// decodeDelivery maps a message body through the wire boundary. The AMQP
// timestamp, when set, is the fallback for a body without one.
func decodeDelivery(body []byte, sent time.Time) (domain.Position, bool) {
	rec, err := wire.DecodeOne(body)
	if err != nil {
		return domain.Position{}, false
	}
	if sent.IsZero() {
		sent = time.Now()
	}
	return wire.Position(rec, sent.UTC())
}
