package update_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	LockFacilityDay(ctx context.Context, facilityID int64, date time.Time) error
	Update(ctx context.Context, booking *domain.Booking) error
}

// FacilityRepository интерфейс репозитория объектов
type FacilityRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Facility, error)
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

// Metrics счётчики отказов
type Metrics interface {
	IncBookingConflict(reason string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
