package list_facilities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/internal/service/facilities"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/facilities/models"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
)

type stubService struct {
	resp *models.FacilityListResponse
	err  error
}

func (s stubService) List(context.Context) (*models.FacilityListResponse, error) {
	return s.resp, s.err
}

func TestHandle(t *testing.T) {
	svc := stubService{resp: &models.FacilityListResponse{
		Date: "2025-10-15",
		Facilities: []models.FacilityWithAvailability{
			{FacilityResponse: models.FacilityResponse{ID: 1, Name: "Gym", Capacity: 2}, TodayBookings: 2, IsAvailable: false},
		},
	}}

	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "2025-10-15", body["date"])
	items := body["facilities"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Gym", first["name"])
	assert.Equal(t, float64(2), first["todayBookings"])
	assert.Equal(t, false, first["isAvailable"])
}

func TestHandle_Error(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(stubService{err: facilities.ErrInternal}, logger.NewNop()).
		Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
