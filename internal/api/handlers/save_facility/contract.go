package save_facility

import (
	"context"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/facilities/models"
)

type FacilityService interface {
	Create(ctx context.Context, req *models.FacilityRequest, actor domain.Actor) (*models.FacilityResponse, error)
	Update(ctx context.Context, id int64, req *models.FacilityRequest, actor domain.Actor) (*models.FacilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
