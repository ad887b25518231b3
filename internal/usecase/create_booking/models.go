package create_booking

import (
	"time"

	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	UserID     int64            // ID пользователя из токена
	Username   string           // username из токена (опционально)
	Email      string           // email из токена (опционально)
	FacilityID int64            // ID объекта
	Date       time.Time        // Дата бронирования (без времени)
	StartTime  types.TimeString // Время начала слота (например, "10:00")
	Notes      string           // Дополнительные заметки (опционально)
}

// Response модель ответа с созданным бронированием
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
