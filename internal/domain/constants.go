package domain

// Default configuration values
const (
	DefaultSlotDurationMinutes = 60
	DefaultOpenHour            = 9
	DefaultCloseHour           = 18
)

// Business validation constants
const (
	MinFacilityCapacity       = 1
	MaxFacilityNameLength     = 100
	MaxFacilityLocationLength = 200
	MaxNotesLength            = 1000
	MaxBulkStatusIDs          = 100
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
