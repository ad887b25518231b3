package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityBooking/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBooking/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
	createBooking "github.com/m04kA/SMC-FacilityBooking/internal/usecase/create_booking"
)

const (
	fieldDate       = "date"
	fieldStartTime  = "startTime"
	fieldFacilityID = "facilityId"

	msgUnauthorized       = "требуется авторизация"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты бронирования, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени начала, ожидается HH:MM"
	msgFacilityNotFound   = "объект не найден"
	msgPastDate           = "нельзя забронировать время в прошлом"
	msgInvalidRange       = "время окончания должно быть позже времени начала"
	msgSlotTaken          = "выбранный временной слот уже занят"
	msgCapacityExceeded   = "на это время объект полностью занят"
	msgInvalidTimeSlot    = "время начала не входит в расписание объекта"
	msgInvalidInput       = "некорректные данные бронирования"
	msgUserNotRegistered  = "пользователь не зарегистрирован в сервисе"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	userID := actor.UserID
	useCaseReq, err := req.ToUseCaseRequest(actor)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		if errors.Is(err, errInvalidTime) {
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldStartTime, msgInvalidTime)
		} else {
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldDate, msgInvalidDate)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrOverlap):
			h.logger.Warn("POST /bookings - Slot taken: user_id=%d, facility_id=%d", userID, req.FacilityID)
			handlers.RespondConflict(w, fieldStartTime, msgSlotTaken)

		case errors.Is(err, availability.ErrCapacityExceeded):
			h.logger.Warn("POST /bookings - Capacity exceeded: user_id=%d, facility_id=%d", userID, req.FacilityID)
			handlers.RespondConflict(w, fieldStartTime, msgCapacityExceeded)

		case errors.Is(err, availability.ErrPastDate):
			h.logger.Warn("POST /bookings - Past date: user_id=%d, facility_id=%d", userID, req.FacilityID)
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldDate, msgPastDate)

		case errors.Is(err, availability.ErrInvalidRange):
			h.logger.Warn("POST /bookings - Invalid range: user_id=%d, facility_id=%d", userID, req.FacilityID)
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldStartTime, msgInvalidRange)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings - Invalid time slot: user_id=%d, start=%s", userID, req.StartTime)
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldStartTime, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrFacilityNotFound):
			h.logger.Warn("POST /bookings - Facility not found: facility_id=%d", req.FacilityID)
			handlers.RespondFieldError(w, http.StatusNotFound, fieldFacilityID, msgFacilityNotFound)

		case errors.Is(err, createBooking.ErrUserNotRegistered):
			h.logger.Warn("POST /bookings - User not registered: user_id=%d", userID)
			handlers.RespondForbidden(w, msgUserNotRegistered)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, facility_id=%d, error=%v",
				userID, req.FacilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, user_id=%d, facility_id=%d",
		result.ID, userID, req.FacilityID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
