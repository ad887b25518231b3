package create_booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	facilityRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/facility"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

// memoryStore хранит бронирования и повторяет ограничения БД
type memoryStore struct {
	bookings  []*domain.Booking
	nextID    int64
	locked    []int64
	createErr error
}

func (s *memoryStore) LockFacilityDay(_ context.Context, facilityID int64, _ time.Time) error {
	s.locked = append(s.locked, facilityID)
	return nil
}

func (s *memoryStore) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	for _, existing := range s.bookings {
		if existing.FacilityID == b.FacilityID && existing.Date.Equal(b.Date) && existing.StartTime.Equal(b.StartTime) {
			return nil, bookingRepo.ErrDuplicateSlot
		}
	}
	s.nextID++
	b.ID = s.nextID
	s.bookings = append(s.bookings, b)
	return b, nil
}

func (s *memoryStore) FindOverlapping(_ context.Context, facilityID int64, date time.Time, start, end types.TimeString, excludeID *int64) ([]*domain.Booking, error) {
	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.FacilityID == facilityID && b.Date.Equal(date) && b.IsActive() && b.Overlaps(start, end) {
			if excludeID == nil || *excludeID != b.ID {
				result = append(result, b)
			}
		}
	}
	return result, nil
}

func (s *memoryStore) CountAtStart(_ context.Context, facilityID int64, date time.Time, start types.TimeString, excludeID *int64) (int, error) {
	count := 0
	for _, b := range s.bookings {
		if b.FacilityID == facilityID && b.Date.Equal(date) && b.IsActive() && b.StartTime.Equal(start) {
			if excludeID == nil || *excludeID != b.ID {
				count++
			}
		}
	}
	return count, nil
}

type memoryFacilities map[int64]*domain.Facility

func (m memoryFacilities) GetByID(_ context.Context, id int64) (*domain.Facility, error) {
	f, ok := m[id]
	if !ok {
		return nil, facilityRepo.ErrFacilityNotFound
	}
	return f, nil
}

// memoryUsers повторяет INSERT ... ON CONFLICT DO NOTHING
type memoryUsers struct {
	byID map[int64]*domain.User
	err  error
}

func (m *memoryUsers) EnsureExists(_ context.Context, u *domain.User) error {
	if m.err != nil {
		return m.err
	}
	if m.byID == nil {
		m.byID = make(map[int64]*domain.User)
	}
	if _, ok := m.byID[u.ID]; !ok {
		m.byID[u.ID] = u
	}
	return nil
}

type inlineTx struct{}

func (inlineTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recorder struct {
	invalidated int
	created     []int64
	conflicts   []string
	createdInc  int
}

func (r *recorder) Invalidate(context.Context, int64, time.Time) error {
	r.invalidated++
	return nil
}
func (r *recorder) BookingCreated(id int64)          { r.created = append(r.created, id) }
func (r *recorder) IncBookingCreated()               { r.createdInc++ }
func (r *recorder) IncBookingConflict(reason string) { r.conflicts = append(r.conflicts, reason) }

type funcValidator func(ctx context.Context, req availability.Request) error

func (f funcValidator) Validate(ctx context.Context, req availability.Request) error {
	return f(ctx, req)
}

func futureDate(days int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
}

type testEnv struct {
	uc    *UseCase
	store *memoryStore
	users *memoryUsers
	rec   *recorder
}

func newTestEnv(capacity int, validator Validator) *testEnv {
	store := &memoryStore{}
	rec := &recorder{}
	facilities := memoryFacilities{1: {ID: 1, Name: "Tennis Court", Capacity: capacity}}
	if validator == nil {
		validator = availability.NewValidator(store, time.UTC, logger.NewNop())
	}
	users := &memoryUsers{}
	uc := NewUseCase(store, facilities, users, validator, inlineTx{}, rec, rec, rec, domain.DefaultSlotGrid(), logger.NewNop())
	return &testEnv{uc: uc, store: store, users: users, rec: rec}
}

func TestExecute_CreatesPendingBooking(t *testing.T) {
	env := newTestEnv(2, nil)
	date := futureDate(3)

	resp, err := env.uc.Execute(context.Background(), &Request{
		UserID: 7, FacilityID: 1, Date: date, StartTime: "10:00", Notes: "bring rackets",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, types.TimeString("11:00"), resp.EndTime)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Equal(t, "bring rackets", resp.Notes)

	assert.Equal(t, []int64{1}, env.store.locked)
	assert.Equal(t, 1, env.rec.invalidated)
	assert.Equal(t, []int64{1}, env.rec.created)
	assert.Equal(t, 1, env.rec.createdInc)
}

func TestExecute_SecondUserSameSlotConflicts(t *testing.T) {
	env := newTestEnv(2, nil)
	date := futureDate(3)
	ctx := context.Background()

	_, err := env.uc.Execute(ctx, &Request{UserID: 1, FacilityID: 1, Date: date, StartTime: "10:00"})
	require.NoError(t, err)

	_, err = env.uc.Execute(ctx, &Request{UserID: 2, FacilityID: 1, Date: date, StartTime: "10:00"})
	assert.ErrorIs(t, err, availability.ErrOverlap)
	assert.Equal(t, []string{"overlap"}, env.rec.conflicts)

	_, err = env.uc.Execute(ctx, &Request{UserID: 2, FacilityID: 1, Date: date, StartTime: "11:00"})
	assert.NoError(t, err)

	assert.Len(t, env.rec.created, 2)
}

func TestExecute_PastDate(t *testing.T) {
	env := newTestEnv(2, nil)

	_, err := env.uc.Execute(context.Background(), &Request{
		UserID: 1, FacilityID: 1, Date: futureDate(-1), StartTime: "10:00",
	})

	assert.ErrorIs(t, err, availability.ErrPastDate)
	assert.Empty(t, env.store.bookings)
	assert.Empty(t, env.rec.created)
}

func TestExecute_DuplicateSlotMapsToOverlap(t *testing.T) {
	// Валидатор пропускает, но уникальный индекс срабатывает (гонка с другой транзакцией)
	env := newTestEnv(2, funcValidator(func(context.Context, availability.Request) error { return nil }))
	env.store.createErr = bookingRepo.ErrDuplicateSlot

	_, err := env.uc.Execute(context.Background(), &Request{UserID: 1, FacilityID: 1, Date: futureDate(1), StartTime: "10:00"})

	assert.ErrorIs(t, err, availability.ErrOverlap)
	assert.True(t, availability.IsConflict(err))
	assert.Equal(t, []string{conflictDuplicate}, env.rec.conflicts)
	assert.Empty(t, env.rec.created)
}

func TestExecute_CapacityExceeded(t *testing.T) {
	env := newTestEnv(1, funcValidator(func(context.Context, availability.Request) error {
		return availability.ErrCapacityExceeded
	}))

	_, err := env.uc.Execute(context.Background(), &Request{UserID: 1, FacilityID: 1, Date: futureDate(1), StartTime: "10:00"})

	assert.ErrorIs(t, err, availability.ErrCapacityExceeded)
	assert.Equal(t, []string{"capacity"}, env.rec.conflicts)
}

func TestExecute_FacilityNotFound(t *testing.T) {
	env := newTestEnv(1, nil)

	_, err := env.uc.Execute(context.Background(), &Request{UserID: 1, FacilityID: 99, Date: futureDate(1), StartTime: "10:00"})

	assert.ErrorIs(t, err, ErrFacilityNotFound)
}

func TestExecute_InvalidRequest(t *testing.T) {
	env := newTestEnv(1, nil)
	date := futureDate(1)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{name: "missing facility", req: Request{UserID: 1, Date: date, StartTime: "10:00"}, want: ErrInvalidInput},
		{name: "missing date", req: Request{UserID: 1, FacilityID: 1, StartTime: "10:00"}, want: ErrInvalidInput},
		{name: "missing start", req: Request{UserID: 1, FacilityID: 1, Date: date}, want: ErrInvalidInput},
		{name: "before opening", req: Request{UserID: 1, FacilityID: 1, Date: date, StartTime: "08:00"}, want: ErrInvalidTimeSlot},
		{name: "last slot ends after closing", req: Request{UserID: 1, FacilityID: 1, Date: date, StartTime: "18:00"}, want: ErrInvalidTimeSlot},
		{name: "off grid", req: Request{UserID: 1, FacilityID: 1, Date: date, StartTime: "10:30"}, want: ErrInvalidTimeSlot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.uc.Execute(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExecute_RepositoryFailure(t *testing.T) {
	env := newTestEnv(1, funcValidator(func(context.Context, availability.Request) error { return nil }))
	env.store.createErr = errors.New("connection reset")

	_, err := env.uc.Execute(context.Background(), &Request{UserID: 1, FacilityID: 1, Date: futureDate(1), StartTime: "10:00"})

	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, env.rec.created)
	assert.Zero(t, env.rec.invalidated)
}

func TestExecute_RegistersUserFromToken(t *testing.T) {
	env := newTestEnv(2, nil)

	_, err := env.uc.Execute(context.Background(), &Request{
		UserID: 42, Username: "carol", Email: "carol@example.com",
		FacilityID: 1, Date: futureDate(2), StartTime: "10:00",
	})
	require.NoError(t, err)

	require.Contains(t, env.users.byID, int64(42))
	assert.Equal(t, "carol", env.users.byID[42].Username)
	assert.Equal(t, "carol@example.com", env.users.byID[42].Email)
}

func TestExecute_UnknownUserReference(t *testing.T) {
	// Строка users не вставилась (например, username занят), и FK бронирования отклонил запись
	env := newTestEnv(2, funcValidator(func(context.Context, availability.Request) error { return nil }))
	env.store.createErr = fmt.Errorf("%w: Create - execute insert: constraint bookings_user_id_fkey: %w",
		bookingRepo.ErrUnknownReference, &pq.Error{Code: "23503", Constraint: "bookings_user_id_fkey"})

	_, err := env.uc.Execute(context.Background(), &Request{UserID: 42, FacilityID: 1, Date: futureDate(1), StartTime: "10:00"})

	assert.ErrorIs(t, err, ErrUserNotRegistered)
	assert.NotErrorIs(t, err, ErrInternal)
	assert.Empty(t, env.rec.created)
	assert.Zero(t, env.rec.invalidated)
}

func TestExecute_UserStoreFailure(t *testing.T) {
	env := newTestEnv(2, nil)
	env.users.err = errors.New("connection reset")

	_, err := env.uc.Execute(context.Background(), &Request{UserID: 42, FacilityID: 1, Date: futureDate(1), StartTime: "10:00"})

	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, env.store.bookings)
}
