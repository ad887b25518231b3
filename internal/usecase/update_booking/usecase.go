package update_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	facilityRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/facility"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
	"github.com/m04kA/SMC-FacilityBooking/pkg/ptr"
)

const conflictDuplicate = "duplicate"

// UseCase use case для изменения даты и времени бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	facilityRepo FacilityRepository
	validator    Validator
	txManager    TransactionManager
	cache        SlotsCache
	metrics      Metrics
	grid         domain.SlotGrid
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	facilityRepo FacilityRepository,
	validator Validator,
	txManager TransactionManager,
	cache SlotsCache,
	metrics Metrics,
	grid domain.SlotGrid,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		facilityRepo: facilityRepo,
		validator:    validator,
		txManager:    txManager,
		cache:        cache,
		metrics:      metrics,
		grid:         grid,
		logger:       logger,
	}
}

// Execute изменяет бронирование в статусе pending.
// Слот проверяется заново, собственное бронирование исключается из проверки.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("UpdateBooking: booking=%d by user=%d, date=%s, time=%s",
		req.BookingID, req.Actor.UserID, req.Date.Format(domain.DateFormat), req.StartTime)

	if err := validateRequest(req, uc.grid); err != nil {
		uc.logger.Warn("UpdateBooking: validation failed: %v", err)
		return nil, err
	}

	endTime, err := uc.grid.EndFor(req.StartTime)
	if err != nil {
		uc.logger.Warn("UpdateBooking: cannot compute end time for %s: %v", req.StartTime, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
	}

	var (
		result   *domain.Booking
		previous domain.Booking
	)

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			return err
		}

		if !req.Actor.CanManage(booking) {
			return ErrAccessDenied
		}

		if !booking.CanBeUpdated() {
			return ErrNotEditable
		}

		if err := uc.bookingRepo.LockFacilityDay(txCtx, booking.FacilityID, req.Date); err != nil {
			return err
		}

		facility, err := uc.facilityRepo.GetByID(txCtx, booking.FacilityID)
		if err != nil {
			return err
		}

		if err := uc.validator.Validate(txCtx, availability.Request{
			Facility:  facility,
			Date:      req.Date,
			Start:     req.StartTime,
			End:       endTime,
			ExcludeID: ptr.Ptr(booking.ID),
		}); err != nil {
			return err
		}

		previous = *booking

		booking.Date = req.Date
		booking.StartTime = req.StartTime
		booking.EndTime = endTime
		booking.Notes = req.Notes

		if err := uc.bookingRepo.Update(txCtx, booking); err != nil {
			return err
		}

		result = booking
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		uc.logger.Warn("UpdateBooking: booking id=%d not found", req.BookingID)
		return nil, ErrBookingNotFound
	case errors.Is(err, facilityRepo.ErrFacilityNotFound):
		uc.logger.Error("UpdateBooking: facility of booking id=%d not found", req.BookingID)
		return nil, fmt.Errorf("%w: facility missing: %v", ErrInternal, err)
	case errors.Is(err, ErrAccessDenied):
		uc.logger.Warn("UpdateBooking: access denied for user=%d to booking id=%d", req.Actor.UserID, req.BookingID)
		return nil, err
	case errors.Is(err, ErrNotEditable):
		uc.logger.Warn("UpdateBooking: booking id=%d is not pending", req.BookingID)
		return nil, err
	case errors.Is(err, bookingRepo.ErrDuplicateSlot):
		uc.logger.Warn("UpdateBooking: duplicate slot for booking id=%d", req.BookingID)
		uc.metrics.IncBookingConflict(conflictDuplicate)
		return nil, fmt.Errorf("%w: %w", availability.ErrOverlap, err)
	case availability.IsRejection(err):
		uc.logger.Warn("UpdateBooking: rejected: %v", err)
		uc.metrics.IncBookingConflict(availability.ConflictReason(err))
		return nil, err
	default:
		uc.logger.Error("UpdateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.invalidate(ctx, previous)
	if !previous.Date.Equal(result.Date) {
		uc.invalidate(ctx, *result)
	}

	uc.logger.Info("UpdateBooking: successfully updated booking id=%d", result.ID)

	return &Response{
		ID:         result.ID,
		FacilityID: result.FacilityID,
		UserID:     result.UserID,
		Date:       result.Date,
		StartTime:  result.StartTime,
		EndTime:    result.EndTime,
		Status:     string(result.Status),
		Notes:      result.Notes,
		CreatedAt:  result.CreatedAt,
		UpdatedAt:  result.UpdatedAt,
	}, nil
}

func (uc *UseCase) invalidate(ctx context.Context, b domain.Booking) {
	if err := uc.cache.Invalidate(ctx, b.FacilityID, b.Date); err != nil {
		uc.logger.Warn("UpdateBooking: failed to invalidate slots cache: %v", err)
	}
}
