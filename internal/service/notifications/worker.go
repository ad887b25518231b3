package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/queue"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	"github.com/m04kA/SMC-FacilityBooking/internal/integrations/mailer"
)

// ErrUnknownRoutingKey возвращается для событий, на которые нет шаблона письма
var ErrUnknownRoutingKey = errors.New("notifications: unknown routing key")

// Worker обрабатывает события бронирований и отправляет письма
type Worker struct {
	bookings   BookingRepository
	facilities FacilityRepository
	users      UserRepository
	mailer     Mailer
	limiter    Limiter
	timeout    time.Duration
	metrics    Metrics
	logger     Logger
}

// NewWorker создает обработчик уведомлений
func NewWorker(
	bookings BookingRepository,
	facilities FacilityRepository,
	users UserRepository,
	mailer Mailer,
	limiter Limiter,
	timeout time.Duration,
	metrics Metrics,
	logger Logger,
) *Worker {
	return &Worker{
		bookings:   bookings,
		facilities: facilities,
		users:      users,
		mailer:     mailer,
		limiter:    limiter,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle читает актуальные данные бронирования и отправляет письмо владельцу
func (w *Worker) Handle(ctx context.Context, routingKey string, event queue.BookingEvent) error {
	w.logger.Info("Notify: key=%s booking=%d", routingKey, event.BookingID)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	booking, err := w.bookings.GetByID(ctx, event.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			w.logger.Warn("Notify: booking id=%d no longer exists, skipping", event.BookingID)
			w.metrics.IncNotification(resultSkipped)
			return nil
		}
		w.metrics.IncNotification(resultSendFailed)
		return fmt.Errorf("load booking %d: %w", event.BookingID, err)
	}

	facility, err := w.facilities.GetByID(ctx, booking.FacilityID)
	if err != nil {
		w.metrics.IncNotification(resultSendFailed)
		return fmt.Errorf("load facility %d: %w", booking.FacilityID, err)
	}

	user, err := w.users.GetByID(ctx, booking.UserID)
	if err != nil {
		w.metrics.IncNotification(resultSendFailed)
		return fmt.Errorf("load user %d: %w", booking.UserID, err)
	}

	if strings.TrimSpace(user.Email) == "" {
		w.logger.Warn("Notify: user id=%d has no email, skipping booking id=%d", user.ID, booking.ID)
		w.metrics.IncNotification(resultSkipped)
		return nil
	}

	msg, err := renderMessage(routingKey, booking, facility, user)
	if err != nil {
		w.metrics.IncNotification(resultSkipped)
		return err
	}

	if err := w.limiter.Wait(ctx); err != nil {
		w.metrics.IncNotification(resultSendFailed)
		return fmt.Errorf("rate limiter: %w", err)
	}

	if err := w.mailer.Send(ctx, msg); err != nil {
		w.metrics.IncNotification(resultSendFailed)
		return fmt.Errorf("send mail for booking %d: %w", booking.ID, err)
	}

	w.metrics.IncNotification(resultSent)
	w.logger.Info("Notify: sent %s to user=%d for booking=%d", routingKey, user.ID, booking.ID)
	return nil
}

func renderMessage(routingKey string, b *domain.Booking, f *domain.Facility, u *domain.User) (mailer.Message, error) {
	var subject, headline string

	switch routingKey {
	case queue.RoutingKeyBookingCreated:
		subject = "Booking Received - " + f.Name
		headline = "We have received your booking request. It is pending approval:"
	case queue.RoutingKeyBookingConfirmed:
		subject = "Booking Confirmation - " + f.Name
		headline = "Your booking has been confirmed:"
	case queue.RoutingKeyBookingCancelled:
		subject = "Booking Cancelled - " + f.Name
		headline = "Your booking has been cancelled:"
	default:
		return mailer.Message{}, fmt.Errorf("%w: %s", ErrUnknownRoutingKey, routingKey)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", u.Username)
	fmt.Fprintf(&body, "%s\n", headline)
	fmt.Fprintf(&body, "Facility: %s\n", f.Name)
	if f.Location != "" {
		fmt.Fprintf(&body, "Location: %s\n", f.Location)
	}
	fmt.Fprintf(&body, "Date: %s\n", b.Date.Format(domain.DateFormat))
	fmt.Fprintf(&body, "Time: %s - %s\n", b.StartTime, b.EndTime)
	body.WriteString("\nThank you for using our service!\n")

	return mailer.Message{To: u.Email, Subject: subject, Body: body.String()}, nil
}
