package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

var (
	// ErrMissingParam возвращается, если обязательный параметр не передан
	ErrMissingParam = errors.New("handlers: missing parameter")

	// ErrInvalidParam возвращается, если параметр не удалось разобрать
	ErrInvalidParam = errors.New("handlers: invalid parameter")
)

// PathID разбирает положительный числовой идентификатор из пути запроса
func PathID(r *http.Request, name string) (int64, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	return parseID(name, raw)
}

// QueryID разбирает необязательный числовой параметр строки запроса
func QueryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(name, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// QueryDate разбирает необязательную дату YYYY-MM-DD из строки запроса
func QueryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(domain.DateFormat, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParam, name, err)
	}
	return &date, nil
}

// QueryString возвращает непустой параметр строки запроса или nil
func QueryString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, name, raw)
	}
	return id, nil
}
