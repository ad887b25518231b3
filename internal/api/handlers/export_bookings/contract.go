package export_bookings

import (
	"context"
	"io"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/bookings/models"
)

type ReportService interface {
	ExportBookings(ctx context.Context, req *models.ListBookingsRequest, actor domain.Actor, w io.Writer) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
