package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	BookedStartTimes(ctx context.Context, facilityID int64, date time.Time) ([]types.TimeString, error)
}

// SlotsCache кэш занятых слотов
type SlotsCache interface {
	Get(ctx context.Context, facilityID int64, date time.Time) ([]types.TimeString, bool, error)
	Generation(ctx context.Context, facilityID int64, date time.Time) (int64, error)
	Set(ctx context.Context, facilityID int64, date time.Time, generation int64, slots []types.TimeString) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
