package availability

import "errors"

var (
	// ErrPastDate возвращается, если дата или время начала уже прошли
	ErrPastDate = errors.New("availability: cannot book in the past")

	// ErrInvalidRange возвращается, если время окончания не позже времени начала
	ErrInvalidRange = errors.New("availability: end time must be after start time")

	// ErrOverlap возвращается, если интервал пересекается с активным бронированием
	ErrOverlap = errors.New("availability: time slot is already booked")

	// ErrCapacityExceeded возвращается, если на это время начала не осталось мест
	ErrCapacityExceeded = errors.New("availability: facility is at full capacity for this time slot")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("availability: invalid input")

	// ErrInternal возвращается при ошибках хранилища
	ErrInternal = errors.New("availability: internal error")
)

// IsConflict возвращает true для ошибок, означающих занятый слот
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverlap) || errors.Is(err, ErrCapacityExceeded)
}

// IsRejection возвращает true для любых бизнес-отказов валидатора
func IsRejection(err error) bool {
	return errors.Is(err, ErrPastDate) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidInput) ||
		IsConflict(err)
}

// ConflictReason метка причины отказа для метрик
func ConflictReason(err error) string {
	switch {
	case errors.Is(err, ErrOverlap):
		return "overlap"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	default:
		return "other"
	}
}
