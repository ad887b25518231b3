package get_available_slots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	getAvailableSlots "github.com/m04kA/SMC-FacilityBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*getAvailableSlots.Response); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

var day = time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)

func TestHandle_QueryParams(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, &getAvailableSlots.Request{FacilityID: 2, Date: day}).
		Return(&getAvailableSlots.Response{FacilityID: 2, Date: day, BookedSlots: []types.TimeString{"10:00", "14:00"}}, nil)

	rec := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/booked-slots?facility_id=2&date=2025-10-16", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"booked_slots":["10:00","14:00"]}`, rec.Body.String())
	uc.AssertExpectations(t)
}

func TestHandle_PathParam(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, &getAvailableSlots.Request{FacilityID: 9, Date: day}).
		Return(&getAvailableSlots.Response{FacilityID: 9, Date: day, BookedSlots: []types.TimeString{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities/9/booked-slots?date=2025-10-16", nil)
	req = mux.SetURLVars(req, map[string]string{"facilityId": "9"})
	rec := httptest.NewRecorder()

	NewHandler(uc, logger.NewNop()).Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"booked_slots":[]}`, rec.Body.String())
}

func TestHandle_BadParams(t *testing.T) {
	for _, query := range []string{
		"",
		"?date=2025-10-16",
		"?facility_id=2",
		"?facility_id=abc&date=2025-10-16",
		"?facility_id=2&date=16-10-2025",
	} {
		uc := &mockUseCase{}
		rec := httptest.NewRecorder()

		NewHandler(uc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/booked-slots"+query, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	}
}

func TestHandle_InternalError(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.Anything).Return(nil, getAvailableSlots.ErrInternal)

	rec := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/booked-slots?facility_id=2&date=2025-10-16", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
