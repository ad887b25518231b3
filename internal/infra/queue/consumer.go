package queue

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно событие
type Handler interface {
	Handle(ctx context.Context, routingKey string, event BookingEvent) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Consumer читает события бронирований из очереди
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger Logger
}

// NewConsumer объявляет exchange и очередь, привязывает ключи и задаёт prefetch
func NewConsumer(url, exchange, queue string, keys []string, prefetch int, logger Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	closeAll := func() {
		_ = ch.Close()
		_ = conn.Close()
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			closeAll()
			return nil, fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, queue: q.Name, logger: logger}, nil
}

// Run читает сообщения до отмены ctx или закрытия канала
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			process(ctx, d, handler, c.logger)
		}
	}
}

// process обрабатывает сообщение и подтверждает его.
// Битое сообщение отклоняется без возврата в очередь, ошибка отправки
// только логируется: повторных попыток нет.
func process(ctx context.Context, d amqp.Delivery, handler Handler, logger Logger) {
	event, err := DecodeBookingEvent(d.Body)
	if err == nil {
		err = handler.Handle(ctx, d.RoutingKey, event)
	}

	switch {
	case err == nil:
		_ = d.Ack(false)

	case errors.Is(err, ErrMalformedEvent):
		logger.Warn("queue: reject malformed message key=%s id=%s: %v", d.RoutingKey, d.MessageId, err)
		_ = d.Nack(false, false)

	default:
		logger.Error("queue: handle key=%s id=%s failed: %v", d.RoutingKey, d.MessageId, err)
		_ = d.Ack(false)
	}
}

func (c *Consumer) IsHealthy() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
