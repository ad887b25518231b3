package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/queue"
)

// Результаты для метрики notifications_total
const (
	resultPublished     = "published"
	resultPublishFailed = "publish_failed"
	resultSent          = "sent"
	resultSendFailed    = "send_failed"
	resultSkipped       = "skipped"
)

// Dispatcher ставит уведомления в очередь, не блокируя запрос.
// Ошибки публикации только логируются.
type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
	metrics   Metrics
	logger    Logger
	wg        sync.WaitGroup
}

// NewDispatcher создает диспетчер. publisher может быть nil, если брокер недоступен.
func NewDispatcher(publisher Publisher, timeout time.Duration, metrics Metrics, logger Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// BookingCreated уведомляет о новом бронировании
func (d *Dispatcher) BookingCreated(bookingID int64) {
	d.dispatch(queue.RoutingKeyBookingCreated, bookingID)
}

// BookingStatusChanged уведомляет о подтверждении или отмене
func (d *Dispatcher) BookingStatusChanged(bookingID int64, status domain.BookingStatus) {
	switch status {
	case domain.StatusConfirmed:
		d.dispatch(queue.RoutingKeyBookingConfirmed, bookingID)
	case domain.StatusCancelled:
		d.dispatch(queue.RoutingKeyBookingCancelled, bookingID)
	}
}

// Wait ждёт завершения начатых публикаций
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(routingKey string, bookingID int64) {
	if d.publisher == nil {
		d.logger.Warn("Dispatcher: broker unavailable, dropping %s for booking id=%d", routingKey, bookingID)
		d.metrics.IncNotification(resultPublishFailed)
		return
	}

	event := queue.BookingEvent{BookingID: bookingID, OccurredAt: time.Now().UTC()}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.publisher.Publish(ctx, routingKey, event); err != nil {
			d.logger.Error("Dispatcher: failed to publish %s for booking id=%d: %v", routingKey, bookingID, err)
			d.metrics.IncNotification(resultPublishFailed)
			return
		}

		d.logger.Info("Dispatcher: published %s for booking id=%d", routingKey, bookingID)
		d.metrics.IncNotification(resultPublished)
	}()
}
