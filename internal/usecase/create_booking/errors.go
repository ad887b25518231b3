package create_booking

import "errors"

// Отказы валидатора слота (availability.ErrPastDate, ErrInvalidRange,
// ErrOverlap, ErrCapacityExceeded) возвращаются без изменений.
var (
	// ErrFacilityNotFound возвращается, когда объект не найден
	ErrFacilityNotFound = errors.New("create_booking: facility not found")

	// ErrInvalidTimeSlot возвращается, когда время начала не входит в сетку слотов
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrUserNotRegistered возвращается, когда пользователя из токена нельзя сохранить локально
	ErrUserNotRegistered = errors.New("create_booking: user is not registered")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
