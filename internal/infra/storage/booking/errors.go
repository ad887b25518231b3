package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrDuplicateSlot возвращается при нарушении уникальности (facility_id, date, start_time)
	ErrDuplicateSlot = errors.New("booking.repository: slot already booked")

	// ErrUnknownReference возвращается, когда пользователь или объект бронирования отсутствует в БД
	ErrUnknownReference = errors.New("booking.repository: referenced user or facility does not exist")

	// ErrNotInTransaction возвращается, если операция требует активной транзакции
	ErrNotInTransaction = errors.New("booking.repository: transaction required")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
