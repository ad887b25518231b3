package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	facilityRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/facility"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
)

const conflictDuplicate = "duplicate"

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	facilityRepo FacilityRepository
	userRepo     UserRepository
	validator    Validator
	txManager    TransactionManager
	cache        SlotsCache
	notifier     Notifier
	metrics      Metrics
	grid         domain.SlotGrid
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	facilityRepo FacilityRepository,
	userRepo UserRepository,
	validator Validator,
	txManager TransactionManager,
	cache SlotsCache,
	notifier Notifier,
	metrics Metrics,
	grid domain.SlotGrid,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		facilityRepo: facilityRepo,
		userRepo:     userRepo,
		validator:    validator,
		txManager:    txManager,
		cache:        cache,
		notifier:     notifier,
		metrics:      metrics,
		grid:         grid,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования.
// Проверка слота и запись выполняются в одной сериализуемой транзакции
// под advisory lock на пару (объект, дата).
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, facility=%d, date=%s, time=%s",
		req.UserID, req.FacilityID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных и сетки слотов
	if err := validateRequest(req, uc.grid); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Время окончания = начало + длительность слота
	endTime, err := uc.grid.EndFor(req.StartTime)
	if err != nil {
		uc.logger.Warn("CreateBooking: cannot compute end time for %s: %v", req.StartTime, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
	}

	var result *domain.Booking

	// 3. Проверка и запись в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := uc.bookingRepo.LockFacilityDay(txCtx, req.FacilityID, req.Date); err != nil {
			return err
		}

		facility, err := uc.facilityRepo.GetByID(txCtx, req.FacilityID)
		if err != nil {
			return err
		}

		if err := uc.validator.Validate(txCtx, availability.Request{
			Facility: facility,
			Date:     req.Date,
			Start:    req.StartTime,
			End:      endTime,
		}); err != nil {
			return err
		}

		// Пользователи приходят из внешнего токена, локальная запись нужна для FK
		if err := uc.userRepo.EnsureExists(txCtx, &domain.User{
			ID:       req.UserID,
			Username: req.Username,
			Email:    req.Email,
		}); err != nil {
			return err
		}

		created, err := uc.bookingRepo.Create(txCtx, &domain.Booking{
			FacilityID: req.FacilityID,
			UserID:     req.UserID,
			Date:       req.Date,
			StartTime:  req.StartTime,
			EndTime:    endTime,
			Status:     domain.StatusPending,
			Notes:      req.Notes,
		})
		if err != nil {
			return err
		}

		result = created
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, facilityRepo.ErrFacilityNotFound):
		uc.logger.Warn("CreateBooking: facility id=%d not found", req.FacilityID)
		return nil, ErrFacilityNotFound
	case errors.Is(err, bookingRepo.ErrDuplicateSlot):
		uc.logger.Warn("CreateBooking: duplicate slot facility=%d date=%s time=%s",
			req.FacilityID, req.Date.Format(domain.DateFormat), req.StartTime)
		uc.metrics.IncBookingConflict(conflictDuplicate)
		return nil, fmt.Errorf("%w: %w", availability.ErrOverlap, err)
	case errors.Is(err, bookingRepo.ErrUnknownReference):
		uc.logger.Warn("CreateBooking: user id=%d has no local record: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: %v", ErrUserNotRegistered, err)
	case availability.IsRejection(err):
		uc.logger.Warn("CreateBooking: rejected: %v", err)
		uc.metrics.IncBookingConflict(availability.ConflictReason(err))
		return nil, err
	default:
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 4. Побочные эффекты после фиксации транзакции
	if err := uc.cache.Invalidate(ctx, result.FacilityID, result.Date); err != nil {
		uc.logger.Warn("CreateBooking: failed to invalidate slots cache: %v", err)
	}
	uc.metrics.IncBookingCreated()
	uc.notifier.BookingCreated(result.ID)

	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

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
