package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/queue"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
)

type published struct {
	key       string
	bookingID int64
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{key: key, bookingID: event.BookingID})
	return nil
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: make(map[string]int)}
}

func (m *countingMetrics) IncNotification(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[result]++
}

func (m *countingMetrics) get(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[result]
}

func TestDispatcher_RoutesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	m := newCountingMetrics()
	d := NewDispatcher(pub, time.Second, m, logger.NewNop())

	d.BookingCreated(1)
	d.BookingStatusChanged(2, domain.StatusConfirmed)
	d.BookingStatusChanged(3, domain.StatusCancelled)
	d.BookingStatusChanged(4, domain.StatusPending)
	d.Wait()

	assert.ElementsMatch(t, []published{
		{key: queue.RoutingKeyBookingCreated, bookingID: 1},
		{key: queue.RoutingKeyBookingConfirmed, bookingID: 2},
		{key: queue.RoutingKeyBookingCancelled, bookingID: 3},
	}, pub.events)
	assert.Equal(t, 3, m.get(resultPublished))
}

func TestDispatcher_PublishErrorIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	m := newCountingMetrics()
	d := NewDispatcher(pub, time.Second, m, logger.NewNop())

	d.BookingCreated(1)
	d.Wait()

	assert.Equal(t, 1, m.get(resultPublishFailed))
	assert.Equal(t, 0, m.get(resultPublished))
}

func TestDispatcher_NilPublisher(t *testing.T) {
	m := newCountingMetrics()
	d := NewDispatcher(nil, time.Second, m, logger.NewNop())

	assert.NotPanics(t, func() {
		d.BookingCreated(1)
		d.Wait()
	})
	assert.Equal(t, 1, m.get(resultPublishFailed))
}
