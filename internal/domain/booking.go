package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// ErrInvalidStatus возвращается при разборе неизвестного статуса
var ErrInvalidStatus = errors.New("domain: invalid booking status")

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// ActiveStatuses статусы, которые занимают слот.
// Используются и для проверки пересечений, и для подсчёта вместимости.
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// allowedTransitions допустимые переходы статусов при модерации
var allowedTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// ParseBookingStatus разбирает статус из строки
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// IsValid returns true for known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// IsActive returns true if a booking in this status occupies its slot
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Booking represents a facility reservation
type Booking struct {
	ID         int64
	FacilityID int64
	UserID     int64
	Date       time.Time
	StartTime  types.TimeString
	EndTime    types.TimeString
	Status     BookingStatus
	Notes      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking occupies its slot
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// IsOwnedBy returns true if the booking belongs to the user
func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.UserID == userID
}

// CanBeUpdated returns true while the booking awaits moderation
func (b *Booking) CanBeUpdated() bool {
	return b.Status == StatusPending
}

// CanBeDeleted returns true unless the booking is confirmed
func (b *Booking) CanBeDeleted() bool {
	return b.Status != StatusConfirmed
}

// Overlaps returns true if [start, end) intersects the booking's interval
func (b *Booking) Overlaps(start, end types.TimeString) bool {
	return b.StartTime.IsBefore(end) && b.EndTime.IsAfter(start)
}

// BookingsFilter фильтр для выборки бронирований администратором
type BookingsFilter struct {
	FacilityID *int64         // Фильтр по объекту (опционально)
	UserID     *int64         // Фильтр по пользователю (опционально)
	DateFrom   *time.Time     // Начало периода включительно (опционально)
	DateTo     *time.Time     // Конец периода включительно (опционально)
	Status     *BookingStatus // Фильтр по статусу (опционально)
}

// StatusChange запись журнала смены статуса
type StatusChange struct {
	ID         int64
	BookingID  int64
	FromStatus BookingStatus
	ToStatus   BookingStatus
	ChangedBy  int64
	ChangedAt  time.Time
}
