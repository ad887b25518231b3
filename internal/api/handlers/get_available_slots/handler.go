package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-FacilityBooking/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-FacilityBooking/internal/usecase/get_available_slots"
)

const (
	msgInvalidFacilityID = "некорректный или отсутствующий ID объекта"
	msgInvalidDate       = "некорректная или отсутствующая дата, ожидается YYYY-MM-DD"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/facilities/{facilityId}/booked-slots?date=YYYY-MM-DD
// и GET /api/v1/booked-slots?facility_id=N&date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	facilityID, err := facilityIDFromRequest(r)
	if err != nil {
		h.logger.Warn("GET /booked-slots - Invalid facility ID: %v", err)
		handlers.RespondFieldError(w, http.StatusBadRequest, "facility_id", msgInvalidFacilityID)
		return
	}

	date, err := handlers.QueryDate(r, "date")
	if err != nil || date == nil {
		h.logger.Warn("GET /booked-slots - Invalid date: %v", err)
		handlers.RespondFieldError(w, http.StatusBadRequest, "date", msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		FacilityID: facilityID,
		Date:       *date,
	})
	if err != nil {
		if errors.Is(err, getAvailableSlots.ErrInvalidInput) {
			h.logger.Warn("GET /booked-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidFacilityID)
			return
		}
		h.logger.Error("GET /booked-slots - Failed to get booked slots: facility_id=%d, error=%v", facilityID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

func facilityIDFromRequest(r *http.Request) (int64, error) {
	if _, ok := mux.Vars(r)["facilityId"]; ok {
		return handlers.PathID(r, "facilityId")
	}
	id, err := handlers.QueryID(r, "facility_id")
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, handlers.ErrMissingParam
	}
	return *id, nil
}
