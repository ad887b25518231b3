package save_facility

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityBooking/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBooking/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/facilities"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/facilities/models"
)

const (
	msgUnauthorized       = "требуется авторизация"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidFacilityID  = "некорректный ID объекта"
	msgFacilityNotFound   = "объект не найден"
	msgAccessDenied       = "доступно только администратору"
	msgInvalidFacility    = "название и расположение обязательны, вместимость должна быть не меньше 1"
)

// Handler создание и изменение объектов администратором
type Handler struct {
	service FacilityService
	logger  Logger
}

func NewHandler(service FacilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Create POST /api/v1/admin/facilities
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, req, ok := h.decode(w, r, "POST /admin/facilities")
	if !ok {
		return
	}

	result, err := h.service.Create(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, "POST /admin/facilities", 0, err)
		return
	}

	h.logger.Info("POST /admin/facilities - Facility created: facility_id=%d, admin_id=%d", result.ID, actor.UserID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Update PUT /api/v1/admin/facilities/{facilityId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	facilityID, err := handlers.PathID(r, "facilityId")
	if err != nil {
		h.logger.Warn("PUT /admin/facilities/{facilityId} - Invalid facility ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	actor, req, ok := h.decode(w, r, "PUT /admin/facilities/{facilityId}")
	if !ok {
		return
	}

	result, err := h.service.Update(r.Context(), facilityID, req, actor)
	if err != nil {
		h.respondError(w, "PUT /admin/facilities/{facilityId}", facilityID, err)
		return
	}

	h.logger.Info("PUT /admin/facilities/{facilityId} - Facility updated: facility_id=%d, admin_id=%d", facilityID, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, route string) (domain.Actor, *models.FacilityRequest, bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return actor, nil, false
	}

	var req models.FacilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return actor, nil, false
	}

	return actor, &req, true
}

func (h *Handler) respondError(w http.ResponseWriter, route string, facilityID int64, err error) {
	switch {
	case errors.Is(err, facilities.ErrAccessDenied):
		h.logger.Warn("%s - Access denied", route)
		handlers.RespondForbidden(w, msgAccessDenied)
	case errors.Is(err, facilities.ErrInvalidInput):
		h.logger.Warn("%s - Invalid facility: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidFacility)
	case errors.Is(err, facilities.ErrFacilityNotFound):
		h.logger.Warn("%s - Facility not found: facility_id=%d", route, facilityID)
		handlers.RespondNotFound(w, msgFacilityNotFound)
	default:
		h.logger.Error("%s - Failed to save facility: facility_id=%d, error=%v", route, facilityID, err)
		handlers.RespondInternalError(w)
	}
}
