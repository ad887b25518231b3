package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Ключи маршрутизации событий бронирования
const (
	RoutingKeyBookingCreated   = "booking.created"
	RoutingKeyBookingConfirmed = "booking.confirmed"
	RoutingKeyBookingCancelled = "booking.cancelled"
)

// ErrMalformedEvent возвращается, если тело сообщения не удалось разобрать
var ErrMalformedEvent = errors.New("queue: malformed event")

// BookingRoutingKeys все ключи, на которые подписывается обработчик уведомлений
func BookingRoutingKeys() []string {
	return []string{
		RoutingKeyBookingCreated,
		RoutingKeyBookingConfirmed,
		RoutingKeyBookingCancelled,
	}
}

// BookingEvent событие по бронированию.
// Несёт только ID: обработчик сам читает актуальные данные.
type BookingEvent struct {
	BookingID  int64     `json:"bookingId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// DecodeBookingEvent разбирает тело сообщения
func DecodeBookingEvent(body []byte) (BookingEvent, error) {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return BookingEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.BookingID <= 0 {
		return BookingEvent{}, fmt.Errorf("%w: bookingId must be positive", ErrMalformedEvent)
	}
	return ev, nil
}
