package get_available_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/internal/infra/cache/slots"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

type countingRepo struct {
	slots []types.TimeString
	calls int
	err   error
}

func (r *countingRepo) BookedStartTimes(context.Context, int64, time.Time) ([]types.TimeString, error) {
	r.calls++
	return r.slots, r.err
}

var date = time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)

func newRedisCache(t *testing.T) (*slots.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return slots.NewCache(client, time.Minute), mr
}

func TestExecute_ReadsThroughCache(t *testing.T) {
	cache, _ := newRedisCache(t)
	repo := &countingRepo{slots: []types.TimeString{"10:00", "14:00"}}
	uc := NewUseCase(repo, cache, logger.NewNop())

	for i := 0; i < 2; i++ {
		resp, err := uc.Execute(context.Background(), &Request{FacilityID: 1, Date: date})
		require.NoError(t, err)
		assert.Equal(t, []types.TimeString{"10:00", "14:00"}, resp.BookedSlots)
	}

	assert.Equal(t, 1, repo.calls)
}

// racingRepo имитирует бронирование, зафиксированное во время чтения списка
type racingRepo struct {
	cache *slots.Cache
	calls int
}

func (r *racingRepo) BookedStartTimes(ctx context.Context, facilityID int64, d time.Time) ([]types.TimeString, error) {
	r.calls++
	if r.calls == 1 {
		if err := r.cache.Invalidate(ctx, facilityID, d); err != nil {
			return nil, err
		}
		return []types.TimeString{}, nil
	}
	return []types.TimeString{"10:00"}, nil
}

func TestExecute_DoesNotCacheListInvalidatedDuringRead(t *testing.T) {
	cache, _ := newRedisCache(t)
	repo := &racingRepo{cache: cache}
	uc := NewUseCase(repo, cache, logger.NewNop())
	ctx := context.Background()

	first, err := uc.Execute(ctx, &Request{FacilityID: 1, Date: date})
	require.NoError(t, err)
	assert.Empty(t, first.BookedSlots)

	second, err := uc.Execute(ctx, &Request{FacilityID: 1, Date: date})
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"10:00"}, second.BookedSlots)
	assert.Equal(t, 2, repo.calls)

	third, err := uc.Execute(ctx, &Request{FacilityID: 1, Date: date})
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"10:00"}, third.BookedSlots)
	assert.Equal(t, 2, repo.calls)
}

func TestExecute_NoBookingsIsEmptyList(t *testing.T) {
	uc := NewUseCase(&countingRepo{}, slots.NewCache(nil, time.Minute), logger.NewNop())

	resp, err := uc.Execute(context.Background(), &Request{FacilityID: 1, Date: date})
	require.NoError(t, err)

	assert.NotNil(t, resp.BookedSlots)
	assert.Empty(t, resp.BookedSlots)
}

func TestExecute_CacheDownFallsBackToDatabase(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	cache := slots.NewCache(client, time.Minute)
	repo := &countingRepo{slots: []types.TimeString{"09:00"}}
	uc := NewUseCase(repo, cache, logger.NewNop())

	resp, err := uc.Execute(context.Background(), &Request{FacilityID: 1, Date: date})
	require.NoError(t, err)

	assert.Equal(t, []types.TimeString{"09:00"}, resp.BookedSlots)
	assert.Equal(t, 1, repo.calls)
}

func TestExecute_InvalidInput(t *testing.T) {
	uc := NewUseCase(&countingRepo{}, slots.NewCache(nil, time.Minute), logger.NewNop())

	_, err := uc.Execute(context.Background(), &Request{Date: date})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{FacilityID: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_RepositoryError(t *testing.T) {
	uc := NewUseCase(&countingRepo{err: errors.New("db down")}, slots.NewCache(nil, time.Minute), logger.NewNop())

	_, err := uc.Execute(context.Background(), &Request{FacilityID: 1, Date: date})

	assert.ErrorIs(t, err, ErrInternal)
}
