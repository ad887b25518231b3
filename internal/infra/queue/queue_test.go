package queue

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
)

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

type handlerFunc func(ctx context.Context, routingKey string, event BookingEvent) error

func (f handlerFunc) Handle(ctx context.Context, routingKey string, event BookingEvent) error {
	return f(ctx, routingKey, event)
}

func TestDecodeBookingEvent(t *testing.T) {
	ev, err := DecodeBookingEvent([]byte(`{"bookingId": 42}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), ev.BookingID)

	_, err = DecodeBookingEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = DecodeBookingEvent([]byte(`{"bookingId": 0}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestProcess(t *testing.T) {
	handlerErr := errors.New("smtp down")

	tests := []struct {
		name        string
		body        string
		handlerErr  error
		wantAck     bool
		wantNack    bool
		wantHandled bool
	}{
		{name: "success acks", body: `{"bookingId":1}`, wantAck: true, wantHandled: true},
		{name: "handler failure still acks", body: `{"bookingId":1}`, handlerErr: handlerErr, wantAck: true, wantHandled: true},
		{name: "malformed is rejected", body: `{`, wantNack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			handled := false
			h := handlerFunc(func(ctx context.Context, key string, ev BookingEvent) error {
				handled = true
				assert.Equal(t, RoutingKeyBookingCreated, key)
				return tt.handlerErr
			})

			d := amqp.Delivery{
				Acknowledger: ack,
				DeliveryTag:  1,
				RoutingKey:   RoutingKeyBookingCreated,
				Body:         []byte(tt.body),
			}

			process(context.Background(), d, h, logger.NewNop())

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.False(t, ack.requeued)
			assert.Equal(t, tt.wantHandled, handled)
		})
	}
}

func TestPublisher_NilSafe(t *testing.T) {
	var p *Publisher

	assert.ErrorIs(t, p.Publish(context.Background(), RoutingKeyBookingCreated, BookingEvent{BookingID: 1}), ErrNotConnected)
	assert.False(t, p.IsHealthy())
	assert.NoError(t, p.Close())
}
