package facilities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	facilityRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/facility"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/facilities/models"
)

// Service сервис каталога объектов
type Service struct {
	facilityRepo   FacilityRepository
	bookingCounter BookingCounter
	calendar       Calendar
	logger         Logger
}

// NewService создает новый экземпляр сервиса объектов
func NewService(
	facilityRepo FacilityRepository,
	bookingCounter BookingCounter,
	calendar Calendar,
	logger Logger,
) *Service {
	return &Service{
		facilityRepo:   facilityRepo,
		bookingCounter: bookingCounter,
		calendar:       calendar,
		logger:         logger,
	}
}

// List возвращает все объекты с количеством активных бронирований на сегодня
func (s *Service) List(ctx context.Context) (*models.FacilityListResponse, error) {
	today := s.calendar.Today()
	s.logger.Info("List: fetching facilities for %s", today.Format(domain.DateFormat))

	facilities, err := s.facilityRepo.List(ctx)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	counts, err := s.bookingCounter.CountActiveByDate(ctx, today)
	if err != nil {
		s.logger.Error("List: failed to count today's bookings: %v", err)
		return nil, fmt.Errorf("%w: List - count bookings: %v", ErrInternal, err)
	}

	resp := &models.FacilityListResponse{
		Date:       today.Format(domain.DateFormat),
		Facilities: make([]models.FacilityWithAvailability, 0, len(facilities)),
	}
	for _, f := range facilities {
		count := counts[f.ID]
		resp.Facilities = append(resp.Facilities, models.FacilityWithAvailability{
			FacilityResponse: *models.FromDomainFacility(f),
			TodayBookings:    count,
			IsAvailable:      f.HasRoomFor(count),
		})
	}

	s.logger.Info("List: fetched %d facilities", len(facilities))
	return resp, nil
}

// GetByID получает объект по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.FacilityResponse, error) {
	s.logger.Info("GetByID: fetching facility id=%d", id)

	facility, err := s.facilityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, facilityRepo.ErrFacilityNotFound) {
			s.logger.Warn("GetByID: facility id=%d not found", id)
			return nil, ErrFacilityNotFound
		}
		s.logger.Error("GetByID: repository error for facility id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainFacility(facility), nil
}

// Create создает объект. Доступно только администратору.
func (s *Service) Create(ctx context.Context, req *models.FacilityRequest, actor domain.Actor) (*models.FacilityResponse, error) {
	s.logger.Info("Create: creating facility name=%q by user=%d", req.Name, actor.UserID)

	if !actor.IsAdmin() {
		s.logger.Warn("Create: user=%d is not an admin", actor.UserID)
		return nil, ErrAccessDenied
	}

	normalize(req)
	if err := validateFacility(req); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	created, err := s.facilityRepo.Create(ctx, req.ToDomainFacility(0))
	if err != nil {
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: created facility id=%d", created.ID)
	return models.FromDomainFacility(created), nil
}

// Update изменяет объект. Доступно только администратору.
// Уменьшение вместимости не затрагивает уже существующие бронирования.
func (s *Service) Update(ctx context.Context, id int64, req *models.FacilityRequest, actor domain.Actor) (*models.FacilityResponse, error) {
	s.logger.Info("Update: updating facility id=%d by user=%d", id, actor.UserID)

	if !actor.IsAdmin() {
		s.logger.Warn("Update: user=%d is not an admin", actor.UserID)
		return nil, ErrAccessDenied
	}

	normalize(req)
	if err := validateFacility(req); err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, err
	}

	facility := req.ToDomainFacility(id)
	if err := s.facilityRepo.Update(ctx, facility); err != nil {
		if errors.Is(err, facilityRepo.ErrFacilityNotFound) {
			s.logger.Warn("Update: facility id=%d not found", id)
			return nil, ErrFacilityNotFound
		}
		s.logger.Error("Update: repository error for facility id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: updated facility id=%d", id)
	return models.FromDomainFacility(facility), nil
}

func normalize(req *models.FacilityRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)
}

func validateFacility(req *models.FacilityRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Name) > domain.MaxFacilityNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, domain.MaxFacilityNameLength)
	}
	if req.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Location) > domain.MaxFacilityLocationLength {
		return fmt.Errorf("%w: location must be at most %d characters", ErrInvalidInput, domain.MaxFacilityLocationLength)
	}
	if req.Capacity < domain.MinFacilityCapacity {
		return fmt.Errorf("%w: capacity must be at least %d", ErrInvalidInput, domain.MinFacilityCapacity)
	}
	return nil
}
