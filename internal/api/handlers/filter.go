package handlers

import (
	"net/http"

	"github.com/m04kA/SMC-FacilityBooking/internal/service/bookings/models"
)

// BookingsFilterFromQuery собирает фильтр администратора из параметров
// facility_id, user_id, date_from, date_to, status
func BookingsFilterFromQuery(r *http.Request) (*models.ListBookingsRequest, error) {
	facilityID, err := QueryID(r, "facility_id")
	if err != nil {
		return nil, err
	}
	userID, err := QueryID(r, "user_id")
	if err != nil {
		return nil, err
	}
	dateFrom, err := QueryDate(r, "date_from")
	if err != nil {
		return nil, err
	}
	dateTo, err := QueryDate(r, "date_to")
	if err != nil {
		return nil, err
	}

	return &models.ListBookingsRequest{
		FacilityID: facilityID,
		UserID:     userID,
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		Status:     QueryString(r, "status"),
	}, nil
}
