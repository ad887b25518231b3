package update_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityBooking/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBooking/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
	updateBooking "github.com/m04kA/SMC-FacilityBooking/internal/usecase/update_booking"
)

const (
	fieldDate      = "date"
	fieldStartTime = "startTime"

	msgUnauthorized       = "требуется авторизация"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты бронирования, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени начала, ожидается HH:MM"
	msgBookingNotFound    = "бронирование не найдено"
	msgAccessDenied       = "нет доступа к бронированию"
	msgNotEditable        = "изменить можно только бронирование в статусе pending"
	msgPastDate           = "нельзя забронировать время в прошлом"
	msgInvalidRange       = "время окончания должно быть позже времени начала"
	msgSlotTaken          = "выбранный временной слот уже занят"
	msgCapacityExceeded   = "на это время объект полностью занят"
	msgInvalidTimeSlot    = "время начала не входит в расписание объекта"
	msgInvalidInput       = "некорректные данные бронирования"
)

type Handler struct {
	useCase UpdateBookingUseCase
	logger  Logger
}

func NewHandler(useCase UpdateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PUT /api/v1/bookings/{bookingId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	bookingID, err := handlers.PathID(r, "bookingId")
	if err != nil {
		h.logger.Warn("PUT /bookings/{bookingId} - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req UpdateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /bookings/{bookingId} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(actor, bookingID)
	if err != nil {
		h.logger.Warn("PUT /bookings/{bookingId} - Failed to parse request: %v", err)
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
		case errors.Is(err, updateBooking.ErrBookingNotFound):
			h.logger.Warn("PUT /bookings/{bookingId} - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, updateBooking.ErrAccessDenied):
			h.logger.Warn("PUT /bookings/{bookingId} - Access denied: booking_id=%d, user_id=%d", bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, updateBooking.ErrNotEditable):
			h.logger.Warn("PUT /bookings/{bookingId} - Booking not editable: booking_id=%d", bookingID)
			handlers.RespondForbidden(w, msgNotEditable)

		case errors.Is(err, availability.ErrOverlap):
			h.logger.Warn("PUT /bookings/{bookingId} - Slot taken: booking_id=%d", bookingID)
			handlers.RespondConflict(w, fieldStartTime, msgSlotTaken)

		case errors.Is(err, availability.ErrCapacityExceeded):
			h.logger.Warn("PUT /bookings/{bookingId} - Capacity exceeded: booking_id=%d", bookingID)
			handlers.RespondConflict(w, fieldStartTime, msgCapacityExceeded)

		case errors.Is(err, availability.ErrPastDate):
			h.logger.Warn("PUT /bookings/{bookingId} - Past date: booking_id=%d", bookingID)
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldDate, msgPastDate)

		case errors.Is(err, availability.ErrInvalidRange):
			h.logger.Warn("PUT /bookings/{bookingId} - Invalid range: booking_id=%d", bookingID)
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldStartTime, msgInvalidRange)

		case errors.Is(err, updateBooking.ErrInvalidTimeSlot):
			h.logger.Warn("PUT /bookings/{bookingId} - Invalid time slot: booking_id=%d, start=%s", bookingID, req.StartTime)
			handlers.RespondFieldError(w, http.StatusBadRequest, fieldStartTime, msgInvalidTimeSlot)

		case errors.Is(err, updateBooking.ErrInvalidInput):
			h.logger.Warn("PUT /bookings/{bookingId} - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PUT /bookings/{bookingId} - Failed to update booking: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /bookings/{bookingId} - Booking updated successfully: booking_id=%d, user_id=%d",
		bookingID, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
