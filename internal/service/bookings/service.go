package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo BookingRepository
	txManager   TransactionManager
	cache       SlotsCache
	notifier    Notifier
	metrics     Metrics
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	cache SlotsCache,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		txManager:   txManager,
		cache:       cache,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
// Пользователь видит только своё бронирование, администратор - любое
func (s *Service) GetByID(ctx context.Context, id int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, actor.UserID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !actor.CanManage(booking) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает бронирования пользователя, новые сверху
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	var status *domain.BookingStatus
	if req.Status != nil {
		parsed, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		status = &parsed
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, status)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// List возвращает бронирования по фильтру. Доступно только администратору.
func (s *Service) List(ctx context.Context, req *models.ListBookingsRequest, actor domain.Actor) (*models.BookingListResponse, error) {
	s.logger.Info("List: fetching bookings by admin=%d", actor.UserID)

	if !actor.IsAdmin() {
		s.logger.Warn("List: user=%d is not an admin", actor.UserID)
		return nil, ErrAccessDenied
	}

	filter, err := s.buildFilter(req)
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, err
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d bookings", len(bookings))
	return models.FromDomainBookingList(bookings), nil
}

// ListDomain то же, что List, но возвращает domain модели (для выгрузки)
func (s *Service) ListDomain(ctx context.Context, req *models.ListBookingsRequest, actor domain.Actor) ([]*domain.Booking, error) {
	if !actor.IsAdmin() {
		s.logger.Warn("ListDomain: user=%d is not an admin", actor.UserID)
		return nil, ErrAccessDenied
	}

	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListDomain: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListDomain - repository error: %v", ErrInternal, err)
	}

	return bookings, nil
}

// Delete удаляет бронирование
// Владелец или администратор, подтверждённые бронирования удалить нельзя
func (s *Service) Delete(ctx context.Context, id int64, actor domain.Actor) error {
	s.logger.Info("Delete: deleting booking id=%d by user=%d", id, actor.UserID)

	var deleted *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if !actor.CanManage(booking) {
			return ErrAccessDenied
		}

		if !booking.CanBeDeleted() {
			return ErrCannotDelete
		}

		if err := s.bookingRepo.Delete(txCtx, id); err != nil {
			return err
		}

		deleted = booking
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		s.logger.Warn("Delete: booking id=%d not found", id)
		return ErrBookingNotFound
	case errors.Is(err, ErrAccessDenied):
		s.logger.Warn("Delete: access denied for user=%d to booking id=%d", actor.UserID, id)
		return err
	case errors.Is(err, ErrCannotDelete):
		s.logger.Warn("Delete: booking id=%d is confirmed", id)
		return err
	default:
		s.logger.Error("Delete: repository error for booking id=%d: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.invalidateSlots(ctx, deleted)

	s.logger.Info("Delete: deleted booking id=%d", id)
	return nil
}

// SetStatus массово меняет статус бронирований. Доступно только администратору.
// Недопустимые переходы и отсутствующие ID пропускаются, каждое изменение
// записывается в журнал смены статусов.
func (s *Service) SetStatus(ctx context.Context, req *models.SetStatusRequest, actor domain.Actor) (*models.SetStatusResponse, error) {
	s.logger.Info("SetStatus: admin=%d sets status=%s for %d bookings", actor.UserID, req.Status, len(req.IDs))

	if !actor.IsAdmin() {
		s.logger.Warn("SetStatus: user=%d is not an admin", actor.UserID)
		return nil, ErrAccessDenied
	}

	target, err := domain.ParseBookingStatus(req.Status)
	if err != nil || target == domain.StatusPending {
		s.logger.Warn("SetStatus: invalid target status=%s", req.Status)
		return nil, ErrInvalidStatus
	}

	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 || len(ids) > domain.MaxBulkStatusIDs {
		s.logger.Warn("SetStatus: invalid ids count=%d", len(ids))
		return nil, fmt.Errorf("%w: ids must contain 1..%d items", ErrInvalidInput, domain.MaxBulkStatusIDs)
	}

	var (
		resp    *models.SetStatusResponse
		changed []*domain.Booking
	)

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		resp = &models.SetStatusResponse{
			Status:  string(target),
			Updated: make([]int64, 0, len(ids)),
			Skipped: make([]models.SkippedBooking, 0),
		}
		changed = changed[:0]

		found, err := s.bookingRepo.GetByIDs(txCtx, ids)
		if err != nil {
			return err
		}

		byID := make(map[int64]*domain.Booking, len(found))
		for _, b := range found {
			byID[b.ID] = b
		}

		for _, id := range ids {
			booking, ok := byID[id]
			if !ok {
				resp.Skipped = append(resp.Skipped, models.SkippedBooking{ID: id, Reason: models.SkipReasonNotFound})
				continue
			}

			if !booking.Status.CanTransitionTo(target) {
				resp.Skipped = append(resp.Skipped, models.SkippedBooking{ID: id, Reason: models.SkipReasonInvalidTransition})
				continue
			}

			if err := s.bookingRepo.UpdateStatus(txCtx, id, target); err != nil {
				return err
			}

			change := &domain.StatusChange{
				BookingID:  id,
				FromStatus: booking.Status,
				ToStatus:   target,
				ChangedBy:  actor.UserID,
			}
			if err := s.bookingRepo.InsertStatusChange(txCtx, change); err != nil {
				return err
			}

			resp.Updated = append(resp.Updated, id)
			changed = append(changed, booking)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("SetStatus: repository error: %v", err)
		return nil, fmt.Errorf("%w: SetStatus - repository error: %v", ErrInternal, err)
	}

	for _, booking := range changed {
		s.metrics.IncStatusChange(string(target))
		s.invalidateSlots(ctx, booking)
		s.notifier.BookingStatusChanged(booking.ID, target)
	}

	s.logger.Info("SetStatus: updated=%d skipped=%d", len(resp.Updated), len(resp.Skipped))
	return resp, nil
}

// Вспомогательные методы

func (s *Service) buildFilter(req *models.ListBookingsRequest) (domain.BookingsFilter, error) {
	filter, err := req.ToDomainFilter()
	if err != nil {
		return filter, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return filter, fmt.Errorf("%w: dateFrom is after dateTo", ErrInvalidInput)
	}

	return filter, nil
}

// invalidateSlots сбрасывает кэш занятых слотов, ошибка кэша не критична
func (s *Service) invalidateSlots(ctx context.Context, booking *domain.Booking) {
	if booking == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, booking.FacilityID, booking.Date); err != nil {
		s.logger.Warn("invalidateSlots: facility=%d date=%s: %v",
			booking.FacilityID, booking.Date.Format(domain.DateFormat), err)
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
