package health

import "context"

// Database проверка соединения с PostgreSQL
type Database interface {
	PingContext(ctx context.Context) error
}

// Broker состояние соединения с RabbitMQ
type Broker interface {
	IsHealthy() bool
}

// Cache состояние Redis, не влияет на общий статус
type Cache interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
