package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPPublisher publishes JSON messages over a shared RabbitMQ connection.
// A channel is opened per publish, channels are not goroutine safe.
type AMQPPublisher struct {
	conn   *amqp.Connection
	logger *zap.Logger

	declareOnce sync.Once
	declareErr  error
}

// DialAMQP connects to the broker at url.
func DialAMQP(url string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return NewAMQPPublisher(conn, log), nil
}

func NewAMQPPublisher(conn *amqp.Connection, log *zap.Logger) *AMQPPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &AMQPPublisher{conn: conn, logger: log}
}

// Connection exposes the underlying connection so consumers can share it.
func (p *AMQPPublisher) Connection() *amqp.Connection {
	return p.conn
}

// DeclareExchanges declares the durable topic exchanges events are published to.
func (p *AMQPPublisher) DeclareExchanges() error {
	p.declareOnce.Do(func() {
		ch, err := p.conn.Channel()
		if err != nil {
			p.declareErr = fmt.Errorf("open channel: %w", err)
			return
		}
		defer ch.Close()

		for _, name := range []string{CandidateExchange, RequirementExchange} {
			if err := ch.ExchangeDeclare(
				name,    // name
				"topic", // kind
				true,    // durable
				false,   // auto-delete
				false,   // internal
				false,   // no-wait
				nil,     // arguments
			); err != nil {
				p.declareErr = fmt.Errorf("declare exchange %s: %w", name, err)
				return
			}
		}
	})
	return p.declareErr
}

func (p *AMQPPublisher) Publish(ctx context.Context, exchange, routingKey string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.DeclareExchanges(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish to %s: %w", exchange, err)
	}

	p.logger.Debug("message published",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.Int("bytes", len(body)),
	)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
