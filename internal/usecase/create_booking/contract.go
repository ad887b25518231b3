package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	LockFacilityDay(ctx context.Context, facilityID int64, date time.Time) error
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// FacilityRepository интерфейс репозитория объектов
type FacilityRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Facility, error)
}

// UserRepository локальная запись пользователя, на которую ссылается бронирование
type UserRepository interface {
	EnsureExists(ctx context.Context, user *domain.User) error
}

// Validator проверка слота на пересечения и вместимость
type Validator interface {
	Validate(ctx context.Context, req availability.Request) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// SlotsCache кэш занятых слотов
type SlotsCache interface {
	Invalidate(ctx context.Context, facilityID int64, date time.Time) error
}

// Notifier асинхронная отправка уведомлений
type Notifier interface {
	BookingCreated(bookingID int64)
}

// Metrics счётчики бронирований
type Metrics interface {
	IncBookingCreated()
	IncBookingConflict(reason string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
