package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/queue"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	"github.com/m04kA/SMC-FacilityBooking/internal/integrations/mailer"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
)

type mockBookings struct{ mock.Mock }

func (m *mockBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type mockFacilities struct{ mock.Mock }

func (m *mockFacilities) GetByID(ctx context.Context, id int64) (*domain.Facility, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Facility), args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type noLimit struct{}

func (noLimit) Wait(context.Context) error { return nil }

type workerDeps struct {
	bookings   *mockBookings
	facilities *mockFacilities
	users      *mockUsers
	mailer     *mockMailer
	metrics    *countingMetrics
}

func newTestWorker() (*Worker, *workerDeps) {
	deps := &workerDeps{
		bookings:   &mockBookings{},
		facilities: &mockFacilities{},
		users:      &mockUsers{},
		mailer:     &mockMailer{},
		metrics:    newCountingMetrics(),
	}
	w := NewWorker(deps.bookings, deps.facilities, deps.users, deps.mailer, noLimit{}, time.Second, deps.metrics, logger.NewNop())
	return w, deps
}

var (
	testBooking = &domain.Booking{
		ID:         10,
		FacilityID: 2,
		UserID:     3,
		Date:       time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
		EndTime:    "11:00",
		Status:     domain.StatusConfirmed,
	}
	testFacility = &domain.Facility{ID: 2, Name: "Tennis Court", Location: "Building B", Capacity: 4}
	testUser     = &domain.User{ID: 3, Username: "alice", Email: "alice@example.com"}
)

func TestWorker_Handle_SendsConfirmation(t *testing.T) {
	w, deps := newTestWorker()
	deps.bookings.On("GetByID", mock.Anything, int64(10)).Return(testBooking, nil)
	deps.facilities.On("GetByID", mock.Anything, int64(2)).Return(testFacility, nil)
	deps.users.On("GetByID", mock.Anything, int64(3)).Return(testUser, nil)

	var sent mailer.Message
	deps.mailer.On("Send", mock.Anything, mock.AnythingOfType("mailer.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(mailer.Message) }).
		Return(nil)

	err := w.Handle(context.Background(), queue.RoutingKeyBookingConfirmed, queue.BookingEvent{BookingID: 10})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", sent.To)
	assert.Equal(t, "Booking Confirmation - Tennis Court", sent.Subject)
	assert.Contains(t, sent.Body, "Dear alice,")
	assert.Contains(t, sent.Body, "Facility: Tennis Court")
	assert.Contains(t, sent.Body, "Date: 2025-10-16")
	assert.Contains(t, sent.Body, "Time: 10:00 - 11:00")
	assert.Equal(t, 1, deps.metrics.get(resultSent))
	deps.mailer.AssertExpectations(t)
}

func TestWorker_Handle_SubjectPerEvent(t *testing.T) {
	tests := []struct {
		key     string
		subject string
	}{
		{key: queue.RoutingKeyBookingCreated, subject: "Booking Received - Tennis Court"},
		{key: queue.RoutingKeyBookingCancelled, subject: "Booking Cancelled - Tennis Court"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			msg, err := renderMessage(tt.key, testBooking, testFacility, testUser)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, msg.Subject)
		})
	}

	_, err := renderMessage("booking.unknown", testBooking, testFacility, testUser)
	assert.ErrorIs(t, err, ErrUnknownRoutingKey)
}

func TestWorker_Handle_BookingGone(t *testing.T) {
	w, deps := newTestWorker()
	deps.bookings.On("GetByID", mock.Anything, int64(10)).Return(nil, bookingRepo.ErrBookingNotFound)

	err := w.Handle(context.Background(), queue.RoutingKeyBookingCreated, queue.BookingEvent{BookingID: 10})

	assert.NoError(t, err)
	assert.Equal(t, 1, deps.metrics.get(resultSkipped))
	deps.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestWorker_Handle_UserWithoutEmail(t *testing.T) {
	w, deps := newTestWorker()
	deps.bookings.On("GetByID", mock.Anything, int64(10)).Return(testBooking, nil)
	deps.facilities.On("GetByID", mock.Anything, int64(2)).Return(testFacility, nil)
	deps.users.On("GetByID", mock.Anything, int64(3)).Return(&domain.User{ID: 3, Username: "bob"}, nil)

	err := w.Handle(context.Background(), queue.RoutingKeyBookingCreated, queue.BookingEvent{BookingID: 10})

	assert.NoError(t, err)
	deps.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestWorker_Handle_SendFailure(t *testing.T) {
	w, deps := newTestWorker()
	deps.bookings.On("GetByID", mock.Anything, int64(10)).Return(testBooking, nil)
	deps.facilities.On("GetByID", mock.Anything, int64(2)).Return(testFacility, nil)
	deps.users.On("GetByID", mock.Anything, int64(3)).Return(testUser, nil)
	smtpErr := errors.New("smtp: 421 service not available")
	deps.mailer.On("Send", mock.Anything, mock.Anything).Return(smtpErr)

	err := w.Handle(context.Background(), queue.RoutingKeyBookingCreated, queue.BookingEvent{BookingID: 10})

	assert.ErrorIs(t, err, smtpErr)
	assert.Equal(t, 1, deps.metrics.get(resultSendFailed))
}
