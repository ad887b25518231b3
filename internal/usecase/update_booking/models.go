package update_booking

import (
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// Request модель запроса на изменение бронирования
type Request struct {
	Actor     domain.Actor     // Кто изменяет
	BookingID int64            // ID бронирования
	Date      time.Time        // Новая дата
	StartTime types.TimeString // Новое время начала
	Notes     string           // Новые заметки
}

// Response модель ответа с изменённым бронированием
type Response struct {
	ID         int64
	FacilityID int64
	UserID     int64
	Date       time.Time
	StartTime  types.TimeString
	EndTime    types.TimeString
	Status     string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
