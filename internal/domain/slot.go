package domain

import (
	"fmt"

	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// SlotGrid сетка времени начала, которую предлагает сервис:
// слоты длительностью DurationMinutes с OpenHour до CloseHour
type SlotGrid struct {
	OpenHour        int
	CloseHour       int
	DurationMinutes int
}

// DefaultSlotGrid hourly slots 09:00..17:00
func DefaultSlotGrid() SlotGrid {
	return SlotGrid{
		OpenHour:        DefaultOpenHour,
		CloseHour:       DefaultCloseHour,
		DurationMinutes: DefaultSlotDurationMinutes,
	}
}

// StartTimes returns every offered start time in ascending order
func (g SlotGrid) StartTimes() []types.TimeString {
	if g.DurationMinutes <= 0 {
		return nil
	}

	result := make([]types.TimeString, 0)
	for m := g.OpenHour * 60; m+g.DurationMinutes <= g.CloseHour*60; m += g.DurationMinutes {
		t, err := types.NewTimeStringFromMinutes(m)
		if err != nil {
			break
		}
		result = append(result, t)
	}
	return result
}

// Contains returns true if start is one of the offered start times
func (g SlotGrid) Contains(start types.TimeString) bool {
	m := start.Minutes()
	if m < 0 || g.DurationMinutes <= 0 {
		return false
	}

	open := g.OpenHour * 60
	if m < open || m+g.DurationMinutes > g.CloseHour*60 {
		return false
	}
	return (m-open)%g.DurationMinutes == 0
}

// EndFor возвращает время окончания слота, начинающегося в start
func (g SlotGrid) EndFor(start types.TimeString) (types.TimeString, error) {
	end, err := start.AddMinutes(g.DurationMinutes)
	if err != nil {
		return "", fmt.Errorf("slot end for %s: %w", start, err)
	}
	return end, nil
}
