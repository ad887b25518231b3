package facilities

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

// FacilityRepository интерфейс репозитория объектов
type FacilityRepository interface {
	Create(ctx context.Context, facility *domain.Facility) (*domain.Facility, error)
	GetByID(ctx context.Context, id int64) (*domain.Facility, error)
	List(ctx context.Context) ([]*domain.Facility, error)
	Update(ctx context.Context, facility *domain.Facility) error
}

// BookingCounter подсчёт активных бронирований по объектам
type BookingCounter interface {
	CountActiveByDate(ctx context.Context, date time.Time) (map[int64]int, error)
}

// Calendar текущая дата в часовом поясе сервиса
type Calendar interface {
	Today() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
