package models

import (
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

// FacilityRequest запрос на создание или изменение объекта
type FacilityRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

// ToDomainFacility конвертирует request в domain модель
func (r *FacilityRequest) ToDomainFacility(id int64) *domain.Facility {
	return &domain.Facility{
		ID:          id,
		Name:        r.Name,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Description: r.Description,
	}
}

// FacilityResponse ответ с данными объекта
type FacilityResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FacilityWithAvailability объект с загрузкой на сегодня
type FacilityWithAvailability struct {
	FacilityResponse
	TodayBookings int  `json:"todayBookings"`
	IsAvailable   bool `json:"isAvailable"`
}

// FacilityListResponse ответ со списком объектов
type FacilityListResponse struct {
	Date       string                     `json:"date"`
	Facilities []FacilityWithAvailability `json:"facilities"`
}

// FromDomainFacility конвертирует domain модель в DTO
func FromDomainFacility(f *domain.Facility) *FacilityResponse {
	if f == nil {
		return nil
	}
	return &FacilityResponse{
		ID:          f.ID,
		Name:        f.Name,
		Location:    f.Location,
		Capacity:    f.Capacity,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
