package worker

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	RequirementsQueue = "requirements"

	defaultConsumers = 1
	defaultPrefetch  = 1
)

// MessageHandler processes one message body.
type MessageHandler interface {
	Handle(ctx context.Context, body []byte) error
}

type Config struct {
	Queue     string `mapstructure:"queue"`
	Consumers int    `mapstructure:"consumers"`
	Prefetch  int    `mapstructure:"prefetch"`
	// ScoringWorkers limits parallel scoring inside one message. Zero means GOMAXPROCS.
	ScoringWorkers int `mapstructure:"scoring-workers"`
}

func (c Config) withDefaults() Config {
	if c.Queue == "" {
		c.Queue = RequirementsQueue
	}
	if c.Consumers <= 0 {
		c.Consumers = defaultConsumers
	}
	if c.Prefetch <= 0 {
		c.Prefetch = defaultPrefetch
	}
	return c
}

// Consumer runs a pool of queue consumers sharing one broker connection.
// Each consumer owns its channel.
type Consumer struct {
	conn    *amqp.Connection
	handler MessageHandler
	cfg     Config
	logger  *zap.Logger
}

func NewConsumer(conn *amqp.Connection, handler MessageHandler, cfg Config, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{conn: conn, handler: handler, cfg: cfg.withDefaults(), logger: log}
}

// Run consumes until ctx is done or a consumer loses its channel.
func (c *Consumer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range c.cfg.Consumers {
		g.Go(func() error {
			return c.consume(gctx, i+1)
		})
	}
	return g.Wait()
}

func (c *Consumer) consume(ctx context.Context, id int) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, c.cfg.Queue); err != nil {
		return err
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.cfg.Queue,
		fmt.Sprintf("talent-matcher-%d", id), // consumer tag
		false,                                // auto-ack
		false,                                // exclusive
		false,                                // no-local
		false,                                // no-wait
		nil,                                  // arguments
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}

	log := c.logger.With(zap.Int("consumer", id))
	log.Info("consumer started", zap.String("queue", c.cfg.Queue))

	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("consumer %d: delivery channel closed", id)
			}
			c.deliver(ctx, d, log)
		}
	}
}

// DeclareQueue makes sure the durable requests queue exists so messages
// published before any consumer starts are kept.
func DeclareQueue(conn *amqp.Connection, name string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return declareQueue(ch, name)
}

func declareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// deliver acks a handled message. Failed messages are dropped without requeue
// so a poison message cannot loop.
func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	if err := c.handler.Handle(ctx, d.Body); err != nil {
		log.Error("message failed",
			zap.Uint64("delivery_tag", d.DeliveryTag),
			zap.Error(err),
		)
		if err := d.Nack(false, false); err != nil {
			log.Warn("nack failed", zap.Error(err))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Warn("ack failed", zap.Error(err))
	}
}
