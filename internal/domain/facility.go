package domain

import "time"

// Facility represents a bookable facility (pool, court, studio)
type Facility struct {
	ID          int64
	Name        string
	Location    string
	Capacity    int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRoomFor returns true if activeCount bookings still leave space
func (f *Facility) HasRoomFor(activeCount int) bool {
	return activeCount < f.Capacity
}
