package get_available_slots

import (
	getAvailableSlots "github.com/m04kA/SMC-FacilityBooking/internal/usecase/get_available_slots"
)

// BookedSlotsResponse HTTP response model
type BookedSlotsResponse struct {
	BookedSlots []string `json:"booked_slots"` // ["10:00", "14:00"]
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *BookedSlotsResponse {
	slots := make([]string, 0, len(resp.BookedSlots))
	for _, slot := range resp.BookedSlots {
		slots = append(slots, slot.String())
	}
	return &BookedSlotsResponse{BookedSlots: slots}
}
