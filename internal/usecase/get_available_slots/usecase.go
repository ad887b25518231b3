package get_available_slots

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// UseCase use case для получения занятых слотов объекта на дату
type UseCase struct {
	bookingRepo BookingRepository
	cache       SlotsCache
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, cache SlotsCache, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		cache:       cache,
		logger:      logger,
	}
}

// Execute возвращает время начала активных бронирований.
// Ошибки кэша не прерывают запрос, данные читаются из БД.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: facility=%d, date=%s", req.FacilityID, req.Date.Format(domain.DateFormat))

	if req.FacilityID <= 0 {
		return nil, fmt.Errorf("%w: facilityID must be positive", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	slots, hit, err := uc.cache.Get(ctx, req.FacilityID, req.Date)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: cache read failed, falling back to database: %v", err)
	}
	if hit {
		return uc.response(req, slots), nil
	}

	// Поколение фиксируется до чтения из БД, чтобы не закэшировать
	// список, который устарел из-за параллельной записи
	generation, genErr := uc.cache.Generation(ctx, req.FacilityID, req.Date)
	if genErr != nil {
		uc.logger.Warn("GetAvailableSlots: cache generation read failed, result will not be cached: %v", genErr)
	}

	slots, err = uc.bookingRepo.BookedStartTimes(ctx, req.FacilityID, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: repository error for facility=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: failed to get booked slots: %v", ErrInternal, err)
	}

	if genErr == nil {
		if err := uc.cache.Set(ctx, req.FacilityID, req.Date, generation, slots); err != nil {
			uc.logger.Warn("GetAvailableSlots: cache write failed: %v", err)
		}
	}

	return uc.response(req, slots), nil
}

func (uc *UseCase) response(req *Request, slots []types.TimeString) *Response {
	if slots == nil {
		slots = []types.TimeString{}
	}
	return &Response{
		FacilityID:  req.FacilityID,
		Date:        req.Date,
		BookedSlots: slots,
	}
}
