package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultReconnectDelay = 5 * time.Second

// ErrNotConnected возвращается при публикации без соединения с брокером
var ErrNotConnected = errors.New("queue: publisher is not connected")

type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// session открытые соединение и канал с брокером
type session struct {
	channel channelPublisher
	closer  io.Closer
	closed  <-chan *amqp.Error
}

type dialFunc func() (*session, error)

// Publisher публикует события бронирований в topic exchange.
// Соединение восстанавливается в фоне после обрыва или неудачного старта.
type Publisher struct {
	mu       sync.Mutex
	sess     *session
	exchange string

	dial           dialFunc
	reconnectDelay time.Duration
	logger         Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPublisher создает издателя и пытается подключиться сразу.
// Если брокер недоступен, издатель всё равно возвращается и подключается позже,
// а Publish до этого отвечает ErrNotConnected.
func NewPublisher(url, exchange string, reconnectDelay time.Duration, logger Logger) *Publisher {
	return newPublisher(func() (*session, error) {
		return dialSession(url, exchange)
	}, exchange, reconnectDelay, logger)
}

func newPublisher(dial dialFunc, exchange string, reconnectDelay time.Duration, logger Logger) *Publisher {
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}
	p := &Publisher{
		exchange:       exchange,
		dial:           dial,
		reconnectDelay: reconnectDelay,
		logger:         logger,
		done:           make(chan struct{}),
	}

	if err := p.connect(); err != nil {
		p.logger.Warn("RabbitMQ publisher: initial connection failed, retrying every %s: %v", reconnectDelay, err)
	} else {
		p.logger.Info("RabbitMQ publisher: connected to exchange %s", exchange)
	}

	p.wg.Add(1)
	go p.maintain()

	return p
}

func dialSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &session{
		channel: ch,
		closer:  conn,
		closed:  conn.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

func (p *Publisher) connect() error {
	sess, err := p.dial()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.sess = sess
	p.mu.Unlock()
	return nil
}

// maintain ждёт обрыва соединения и переподключается с паузой reconnectDelay
func (p *Publisher) maintain() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		sess := p.sess
		p.mu.Unlock()

		if sess != nil {
			select {
			case <-p.done:
				return
			case amqpErr := <-sess.closed:
				p.mu.Lock()
				if p.sess == sess {
					p.sess = nil
				}
				p.mu.Unlock()
				p.logger.Warn("RabbitMQ publisher: connection closed: %v", amqpErr)
			}
		}

		select {
		case <-p.done:
			return
		case <-time.After(p.reconnectDelay):
		}

		if err := p.connect(); err != nil {
			p.logger.Warn("RabbitMQ publisher: reconnect failed: %v", err)
			continue
		}
		p.logger.Info("RabbitMQ publisher: reconnected to exchange %s", p.exchange)
	}
}

// Publish отправляет событие с ключом routingKey
func (p *Publisher) Publish(ctx context.Context, routingKey string, event BookingEvent) error {
	if p == nil {
		return ErrNotConnected
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess == nil {
		return ErrNotConnected
	}

	err = p.sess.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// IsHealthy возвращает true, пока соединение с брокером открыто
func (p *Publisher) IsHealthy() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess != nil
}

// Close останавливает переподключение и закрывает соединение
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return nil
	}
	err := p.sess.closer.Close()
	p.sess = nil
	return err
}
