package mailer

import "errors"

var (
	// ErrInvalidMessage возвращается при пустом адресате или заголовках с переводом строки
	ErrInvalidMessage = errors.New("mailer: invalid message")

	// ErrSend возвращается, если SMTP сервер не принял письмо
	ErrSend = errors.New("mailer: failed to send message")
)
