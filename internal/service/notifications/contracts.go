package notifications

import (
	"context"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/queue"
	"github.com/m04kA/SMC-FacilityBooking/internal/integrations/mailer"
)

// Publisher публикует события в брокер
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event queue.BookingEvent) error
}

// BookingRepository чтение бронирования по ID
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// FacilityRepository чтение объекта по ID
type FacilityRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Facility, error)
}

// UserRepository чтение пользователя по ID
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Mailer отправка писем
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Limiter ограничение частоты отправки (*rate.Limiter)
type Limiter interface {
	Wait(ctx context.Context) error
}

// Metrics счётчики уведомлений
type Metrics interface {
	IncNotification(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
