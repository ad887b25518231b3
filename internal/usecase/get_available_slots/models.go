package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// Request модель запроса занятых слотов
type Request struct {
	FacilityID int64     // ID объекта
	Date       time.Time // Дата (без времени)
}

// Response модель ответа со списком занятых слотов
type Response struct {
	FacilityID  int64
	Date        time.Time
	BookedSlots []types.TimeString // Время начала активных бронирований, по возрастанию
}
