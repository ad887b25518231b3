package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// Request параметры проверки слота
type Request struct {
	Facility  *domain.Facility
	Date      time.Time
	Start     types.TimeString
	End       types.TimeString
	ExcludeID *int64 // ID изменяемого бронирования, не конфликтует само с собой
}

// Validator проверяет, можно ли занять слот.
// Проверки выполняются по порядку, возвращается первая сработавшая:
// прошедшая дата, некорректный интервал, пересечение, вместимость.
type Validator struct {
	bookingRepo  BookingRepository
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewValidator создает валидатор. "Сегодня" и "сейчас" определяются в location.
func NewValidator(bookingRepo BookingRepository, location *time.Location, logger Logger) *Validator {
	if location == nil {
		location = time.UTC
	}
	return &Validator{
		bookingRepo:  bookingRepo,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Today возвращает текущую дату в часовом поясе валидатора
func (v *Validator) Today() time.Time {
	now := v.timeProvider.Now().In(v.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate возвращает nil, если слот можно занять.
// Должен вызываться внутри той же транзакции, что и последующая запись.
func (v *Validator) Validate(ctx context.Context, req Request) error {
	if req.Facility == nil {
		return fmt.Errorf("%w: facility is required", ErrInvalidInput)
	}
	if err := req.Start.Validate(); err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidInput, err)
	}
	if err := req.End.Validate(); err != nil {
		return fmt.Errorf("%w: end: %v", ErrInvalidInput, err)
	}

	if v.isInPast(req.Date, req.Start) {
		return ErrPastDate
	}

	if !req.End.IsAfter(req.Start) {
		return ErrInvalidRange
	}

	overlapping, err := v.bookingRepo.FindOverlapping(ctx, req.Facility.ID, req.Date, req.Start, req.End, req.ExcludeID)
	if err != nil {
		v.logger.Error("Validate: failed to find overlapping bookings for facility=%d: %v", req.Facility.ID, err)
		return fmt.Errorf("%w: find overlapping: %w", ErrInternal, err)
	}
	if len(overlapping) > 0 {
		v.logger.Warn("Validate: facility=%d date=%s %s-%s overlaps booking id=%d",
			req.Facility.ID, req.Date.Format(domain.DateFormat), req.Start, req.End, overlapping[0].ID)
		return ErrOverlap
	}

	count, err := v.bookingRepo.CountAtStart(ctx, req.Facility.ID, req.Date, req.Start, req.ExcludeID)
	if err != nil {
		v.logger.Error("Validate: failed to count bookings for facility=%d: %v", req.Facility.ID, err)
		return fmt.Errorf("%w: count at start: %w", ErrInternal, err)
	}
	if !req.Facility.HasRoomFor(count) {
		v.logger.Warn("Validate: facility=%d date=%s start=%s is full, %d/%d",
			req.Facility.ID, req.Date.Format(domain.DateFormat), req.Start, count, req.Facility.Capacity)
		return ErrCapacityExceeded
	}

	return nil
}

// isInPast сравнивает календарную дату бронирования и время начала
// с текущим моментом в часовом поясе валидатора
func (v *Validator) isInPast(date time.Time, start types.TimeString) bool {
	now := v.timeProvider.Now().In(v.location)

	y, m, d := date.Date()
	bookingDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if bookingDay.Before(today) {
		return true
	}
	if bookingDay.After(today) {
		return false
	}

	nowSeconds := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return start.Minutes()*60 < nowSeconds
}
