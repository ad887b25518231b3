package set_booking_status

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityBooking/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBooking/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/bookings"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/bookings/models"
)

const (
	msgUnauthorized       = "требуется авторизация"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgAccessDenied       = "доступно только администратору"
	msgInvalidStatus      = "статус должен быть confirmed или cancelled"
	msgInvalidIDs         = "список ids должен содержать от 1 до 100 бронирований"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/admin/bookings/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req models.SetStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /admin/bookings/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.SetStatus(r.Context(), &req, actor)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("POST /admin/bookings/status - Access denied: user_id=%d", actor.UserID)
			handlers.RespondForbidden(w, msgAccessDenied)
		case errors.Is(err, bookings.ErrInvalidStatus):
			h.logger.Warn("POST /admin/bookings/status - Invalid status: %s", req.Status)
			handlers.RespondFieldError(w, http.StatusBadRequest, "status", msgInvalidStatus)
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("POST /admin/bookings/status - Invalid ids: count=%d", len(req.IDs))
			handlers.RespondFieldError(w, http.StatusBadRequest, "ids", msgInvalidIDs)
		default:
			h.logger.Error("POST /admin/bookings/status - Failed to set status: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/bookings/status - Status changed: admin_id=%d, status=%s, updated=%d, skipped=%d",
		actor.UserID, result.Status, len(result.Updated), len(result.Skipped))
	handlers.RespondJSON(w, http.StatusOK, result)
}
