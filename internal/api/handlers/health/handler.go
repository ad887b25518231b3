package health

import (
	"context"
	"net/http"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/api/handlers"
)

const (
	stateUp       = "up"
	stateDown     = "down"
	stateDisabled = "disabled"

	statusOK       = "ok"
	statusDegraded = "degraded"

	checkTimeout = 2 * time.Second
)

// Response состояние зависимостей сервиса
type Response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Broker   string `json:"broker"`
	Cache    string `json:"cache"`
}

type Handler struct {
	db     Database
	broker Broker
	cache  Cache
	logger Logger
}

// NewHandler создает handler. broker может быть nil, если брокер не подключен.
func NewHandler(db Database, broker Broker, cache Cache, logger Logger) *Handler {
	return &Handler{
		db:     db,
		broker: broker,
		cache:  cache,
		logger: logger,
	}
}

// Handle GET /health
// 200 если доступны и база, и брокер, иначе 503
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := Response{
		Status:   statusOK,
		Database: stateUp,
		Broker:   stateUp,
		Cache:    stateDisabled,
	}

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("GET /health - Database is down: %v", err)
		resp.Database = stateDown
	}

	if h.broker == nil || !h.broker.IsHealthy() {
		h.logger.Warn("GET /health - Broker is down")
		resp.Broker = stateDown
	}

	if h.cache != nil && h.cache.Enabled() {
		resp.Cache = stateUp
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("GET /health - Cache is down: %v", err)
			resp.Cache = stateDown
		}
	}

	code := http.StatusOK
	if resp.Database == stateDown || resp.Broker == stateDown {
		resp.Status = statusDegraded
		code = http.StatusServiceUnavailable
	}

	handlers.RespondJSON(w, code, resp)
}
