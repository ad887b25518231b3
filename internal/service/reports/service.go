package reports

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/bookings/models"
)

const sheetName = "Bookings"

var exportColumns = []string{"ID", "Facility", "User ID", "Date", "Start", "End", "Status", "Notes", "Created At"}

// ErrInternal возвращается при ошибке формирования файла
var ErrInternal = errors.New("reports: internal error")

// BookingSource выборка бронирований по фильтру администратора
type BookingSource interface {
	ListDomain(ctx context.Context, req *models.ListBookingsRequest, actor domain.Actor) ([]*domain.Booking, error)
}

// FacilityRepository список объектов для подписи строк
type FacilityRepository interface {
	List(ctx context.Context) ([]*domain.Facility, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Service выгрузка бронирований в XLSX
type Service struct {
	bookings   BookingSource
	facilities FacilityRepository
	logger     Logger
}

// NewService создает сервис выгрузки
func NewService(bookings BookingSource, facilities FacilityRepository, logger Logger) *Service {
	return &Service{
		bookings:   bookings,
		facilities: facilities,
		logger:     logger,
	}
}

// ExportBookings пишет XLSX с бронированиями по фильтру в w.
// Ошибки доступа и фильтра возвращаются как есть из сервиса бронирований.
func (s *Service) ExportBookings(ctx context.Context, req *models.ListBookingsRequest, actor domain.Actor, w io.Writer) (int, error) {
	s.logger.Info("ExportBookings: export requested by user=%d", actor.UserID)

	bookings, err := s.bookings.ListDomain(ctx, req, actor)
	if err != nil {
		return 0, err
	}

	facilities, err := s.facilities.List(ctx)
	if err != nil {
		s.logger.Error("ExportBookings: failed to list facilities: %v", err)
		return 0, fmt.Errorf("%w: list facilities: %v", ErrInternal, err)
	}
	names := make(map[int64]string, len(facilities))
	for _, f := range facilities {
		names[f.ID] = f.Name
	}

	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn("ExportBookings: close workbook: %v", err)
		}
	}()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, fmt.Errorf("%w: rename sheet: %v", ErrInternal, err)
	}

	if err := writeRow(file, 1, toCells(exportColumns)); err != nil {
		return 0, fmt.Errorf("%w: write header: %v", ErrInternal, err)
	}

	if style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = file.SetCellStyle(sheetName, "A1", endCell, style)
	}

	for i, b := range bookings {
		row := []interface{}{
			b.ID,
			names[b.FacilityID],
			b.UserID,
			b.Date.Format(domain.DateFormat),
			b.StartTime.String(),
			b.EndTime.String(),
			string(b.Status),
			b.Notes,
			b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(file, i+2, row); err != nil {
			return 0, fmt.Errorf("%w: write row %d: %v", ErrInternal, i+2, err)
		}
	}

	if err := file.Write(w); err != nil {
		s.logger.Error("ExportBookings: write workbook: %v", err)
		return 0, fmt.Errorf("%w: write workbook: %v", ErrInternal, err)
	}

	s.logger.Info("ExportBookings: exported %d bookings", len(bookings))
	return len(bookings), nil
}

func writeRow(file *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return file.SetSheetRow(sheetName, cell, &values)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
