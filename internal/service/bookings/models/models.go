package models

import (
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// ListBookingsRequest запрос администратора на выборку бронирований
type ListBookingsRequest struct {
	FacilityID *int64     `json:"facilityId,omitempty"` // Фильтр по объекту (опционально)
	UserID     *int64     `json:"userId,omitempty"`     // Фильтр по пользователю (опционально)
	DateFrom   *time.Time `json:"dateFrom,omitempty"`   // Начало периода (опционально)
	DateTo     *time.Time `json:"dateTo,omitempty"`     // Конец периода (опционально)
	Status     *string    `json:"status,omitempty"`     // Фильтр по статусу (опционально)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		FacilityID: r.FacilityID,
		UserID:     r.UserID,
		DateFrom:   r.DateFrom,
		DateTo:     r.DateTo,
	}

	if r.Status != nil {
		status, err := domain.ParseBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// SetStatusRequest массовая смена статуса администратором
type SetStatusRequest struct {
	IDs    []int64 `json:"ids"`
	Status string  `json:"status"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID         int64   `json:"id"`
	FacilityID int64   `json:"facilityId"`
	UserID     int64   `json:"userId"`
	Date       string  `json:"date"`      // "2025-10-15"
	StartTime  string  `json:"startTime"` // "10:00"
	EndTime    string  `json:"endTime"`   // "11:00"
	Status     string  `json:"status"`
	Notes      *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// SkippedBooking бронирование, статус которого не был изменён
type SkippedBooking struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// SetStatusResponse результат массовой смены статуса
type SetStatusResponse struct {
	Status  string           `json:"status"`
	Updated []int64          `json:"updated"`
	Skipped []SkippedBooking `json:"skipped"`
}

// Причины пропуска при массовой смене статуса
const (
	SkipReasonNotFound          = "not_found"
	SkipReasonInvalidTransition = "invalid_transition"
)

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:         b.ID,
		FacilityID: b.FacilityID,
		UserID:     b.UserID,
		Date:       b.Date.Format(domain.DateFormat),
		StartTime:  b.StartTime.String(),
		EndTime:    b.EndTime.String(),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}

	if b.Notes != "" {
		notes := b.Notes
		resp.Notes = &notes
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
