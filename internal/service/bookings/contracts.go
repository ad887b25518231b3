package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Booking, error)
	GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	InsertStatusChange(ctx context.Context, change *domain.StatusChange) error
	Delete(ctx context.Context, id int64) error
}

// SlotsCache кэш занятых слотов
type SlotsCache interface {
	Invalidate(ctx context.Context, facilityID int64, date time.Time) error
}

// Notifier отправка событий о смене статуса
type Notifier interface {
	BookingStatusChanged(bookingID int64, status domain.BookingStatus)
}

// Metrics счётчики смены статусов
type Metrics interface {
	IncStatusChange(status string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
