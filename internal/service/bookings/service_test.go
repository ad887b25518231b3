package bookings

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
	"github.com/m04kA/SMC-FacilityBooking/pkg/ptr"
)

type fakeRepo struct {
	bookings map[int64]*domain.Booking
	changes  []*domain.StatusChange
	err      error
}

func newFakeRepo(bookings ...*domain.Booking) *fakeRepo {
	r := &fakeRepo{bookings: make(map[int64]*domain.Booking)}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if r.err != nil {
		return nil, r.err
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeRepo) GetByIDs(_ context.Context, ids []int64) ([]*domain.Booking, error) {
	if r.err != nil {
		return nil, r.err
	}
	result := make([]*domain.Booking, 0)
	for _, id := range ids {
		if b, ok := r.bookings[id]; ok {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeRepo) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	return r.List(ctx, domain.BookingsFilter{UserID: &userID, Status: status})
}

func (r *fakeRepo) List(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	if r.err != nil {
		return nil, r.err
	}
	result := make([]*domain.Booking, 0)
	for _, b := range r.bookings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.FacilityID != nil && b.FacilityID != *filter.FacilityID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) error {
	r.bookings[id].Status = status
	return nil
}

func (r *fakeRepo) InsertStatusChange(_ context.Context, change *domain.StatusChange) error {
	r.changes = append(r.changes, change)
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(r.bookings, id)
	return nil
}

type inlineTx struct{}

func (inlineTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type fakeCache struct {
	invalidated []int64
}

func (c *fakeCache) Invalidate(_ context.Context, facilityID int64, _ time.Time) error {
	c.invalidated = append(c.invalidated, facilityID)
	return nil
}

type statusEvent struct {
	id     int64
	status domain.BookingStatus
}

type fakeNotifier struct {
	events []statusEvent
}

func (n *fakeNotifier) BookingStatusChanged(id int64, status domain.BookingStatus) {
	n.events = append(n.events, statusEvent{id: id, status: status})
}

type fakeMetrics struct {
	changes map[string]int
}

func (m *fakeMetrics) IncStatusChange(status string) {
	if m.changes == nil {
		m.changes = make(map[string]int)
	}
	m.changes[status]++
}

type testEnv struct {
	svc      *Service
	repo     *fakeRepo
	cache    *fakeCache
	notifier *fakeNotifier
	metrics  *fakeMetrics
}

func newTestEnv(bookings ...*domain.Booking) *testEnv {
	env := &testEnv{
		repo:     newFakeRepo(bookings...),
		cache:    &fakeCache{},
		notifier: &fakeNotifier{},
		metrics:  &fakeMetrics{},
	}
	env.svc = NewService(env.repo, inlineTx{}, env.cache, env.notifier, env.metrics, logger.NewNop())
	return env
}

var (
	owner = domain.Actor{UserID: 2, Role: domain.RoleUser}
	other = domain.Actor{UserID: 3, Role: domain.RoleUser}
	admin = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

func newBooking(id int64, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:         id,
		FacilityID: 5,
		UserID:     owner.UserID,
		Date:       time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
		EndTime:    "11:00",
		Status:     status,
	}
}

func TestService_GetByID(t *testing.T) {
	env := newTestEnv(newBooking(1, domain.StatusPending))
	ctx := context.Background()

	resp, err := env.svc.GetByID(ctx, 1, owner)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-16", resp.Date)
	assert.Equal(t, "10:00", resp.StartTime)

	_, err = env.svc.GetByID(ctx, 1, admin)
	assert.NoError(t, err)

	_, err = env.svc.GetByID(ctx, 1, other)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = env.svc.GetByID(ctx, 99, owner)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_GetUserBookings(t *testing.T) {
	foreign := newBooking(3, domain.StatusPending)
	foreign.UserID = other.UserID
	env := newTestEnv(newBooking(1, domain.StatusPending), newBooking(2, domain.StatusConfirmed), foreign)

	resp, err := env.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{UserID: owner.UserID})
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 2)

	resp, err = env.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: owner.UserID, Status: ptr.Ptr("confirmed"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, int64(2), resp.Bookings[0].ID)

	_, err = env.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: owner.UserID, Status: ptr.Ptr("completed"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.BookingStatus
		actor   domain.Actor
		wantErr error
	}{
		{name: "owner deletes pending", status: domain.StatusPending, actor: owner},
		{name: "owner deletes cancelled", status: domain.StatusCancelled, actor: owner},
		{name: "admin deletes pending", status: domain.StatusPending, actor: admin},
		{name: "confirmed cannot be deleted", status: domain.StatusConfirmed, actor: owner, wantErr: ErrCannotDelete},
		{name: "admin cannot delete confirmed", status: domain.StatusConfirmed, actor: admin, wantErr: ErrCannotDelete},
		{name: "not the owner", status: domain.StatusPending, actor: other, wantErr: ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(newBooking(1, tt.status))

			err := env.svc.Delete(context.Background(), 1, tt.actor)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, env.repo.bookings, int64(1))
				assert.Empty(t, env.cache.invalidated)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, env.repo.bookings, int64(1))
			assert.Equal(t, []int64{5}, env.cache.invalidated)
		})
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	env := newTestEnv()

	err := env.svc.Delete(context.Background(), 1, owner)

	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_SetStatus_StateMachine(t *testing.T) {
	env := newTestEnv(
		newBooking(1, domain.StatusPending),
		newBooking(2, domain.StatusConfirmed),
		newBooking(3, domain.StatusCancelled),
	)

	resp, err := env.svc.SetStatus(context.Background(), &models.SetStatusRequest{
		IDs: []int64{1, 2, 3, 4}, Status: "confirmed",
	}, admin)
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, resp.Updated)
	assert.Equal(t, []models.SkippedBooking{
		{ID: 2, Reason: models.SkipReasonInvalidTransition},
		{ID: 3, Reason: models.SkipReasonInvalidTransition},
		{ID: 4, Reason: models.SkipReasonNotFound},
	}, resp.Skipped)

	assert.Equal(t, domain.StatusConfirmed, env.repo.bookings[1].Status)
	assert.Equal(t, domain.StatusCancelled, env.repo.bookings[3].Status)

	require.Len(t, env.repo.changes, 1)
	assert.Equal(t, domain.StatusPending, env.repo.changes[0].FromStatus)
	assert.Equal(t, domain.StatusConfirmed, env.repo.changes[0].ToStatus)
	assert.Equal(t, admin.UserID, env.repo.changes[0].ChangedBy)

	assert.Equal(t, []statusEvent{{id: 1, status: domain.StatusConfirmed}}, env.notifier.events)
	assert.Equal(t, 1, env.metrics.changes["confirmed"])
}

func TestService_SetStatus_Cancel(t *testing.T) {
	env := newTestEnv(newBooking(1, domain.StatusPending), newBooking(2, domain.StatusConfirmed))

	resp, err := env.svc.SetStatus(context.Background(), &models.SetStatusRequest{
		IDs: []int64{1, 2, 2}, Status: "cancelled",
	}, admin)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, resp.Updated)
	assert.Empty(t, resp.Skipped)
	assert.Len(t, env.notifier.events, 2)
	assert.Len(t, env.cache.invalidated, 2)
}

func TestService_SetStatus_Rejections(t *testing.T) {
	env := newTestEnv(newBooking(1, domain.StatusPending))
	ctx := context.Background()

	_, err := env.svc.SetStatus(ctx, &models.SetStatusRequest{IDs: []int64{1}, Status: "confirmed"}, owner)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = env.svc.SetStatus(ctx, &models.SetStatusRequest{IDs: []int64{1}, Status: "pending"}, admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.svc.SetStatus(ctx, &models.SetStatusRequest{IDs: []int64{1}, Status: "done"}, admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.svc.SetStatus(ctx, &models.SetStatusRequest{Status: "confirmed"}, admin)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, domain.StatusPending, env.repo.bookings[1].Status)
}

func TestService_SetStatus_RepositoryError(t *testing.T) {
	env := newTestEnv(newBooking(1, domain.StatusPending))
	env.repo.err = errors.New("connection refused")

	_, err := env.svc.SetStatus(context.Background(), &models.SetStatusRequest{IDs: []int64{1}, Status: "confirmed"}, admin)

	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, env.notifier.events)
}

func TestService_List(t *testing.T) {
	env := newTestEnv(newBooking(1, domain.StatusPending), newBooking(2, domain.StatusConfirmed))
	ctx := context.Background()

	resp, err := env.svc.List(ctx, &models.ListBookingsRequest{Status: ptr.Ptr("pending")}, admin)
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, int64(1), resp.Bookings[0].ID)

	_, err = env.svc.List(ctx, &models.ListBookingsRequest{}, owner)
	assert.ErrorIs(t, err, ErrAccessDenied)

	from := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)
	_, err = env.svc.List(ctx, &models.ListBookingsRequest{DateFrom: &from, DateTo: &to}, admin)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
