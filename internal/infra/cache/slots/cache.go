package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

const (
	keyPrefix = "booked_slots"

	// Счётчик поколений переживает любую запись данных
	generationTTL = 24 * time.Hour
)

var (
	// ErrCacheRead возвращается при ошибке чтения из Redis
	ErrCacheRead = errors.New("slots.cache: failed to read")

	// ErrCacheWrite возвращается при ошибке записи в Redis
	ErrCacheWrite = errors.New("slots.cache: failed to write")

	// ErrCacheDisabled возвращается из Ping, если Redis не настроен
	ErrCacheDisabled = errors.New("slots.cache: disabled")

	errStaleGeneration = errors.New("slots.cache: generation changed")
)

// Cache кэш занятых слотов объекта на дату
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache создает кэш поверх клиента Redis.
// С nil клиентом кэш выключен: Get всегда промахивается, запись игнорируется.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get возвращает занятые слоты. ok=false при промахе.
func (c *Cache) Get(ctx context.Context, facilityID int64, date time.Time) ([]types.TimeString, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, key(facilityID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCacheRead, err)
	}

	var slots []types.TimeString
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false, fmt.Errorf("%w: decode: %v", ErrCacheRead, err)
	}

	return slots, true, nil
}

// Generation возвращает номер поколения записи. Его нужно прочитать до похода в БД
// и передать в Set: каждая инвалидация увеличивает поколение.
func (c *Cache) Generation(ctx context.Context, facilityID int64, date time.Time) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	gen, err := c.client.Get(ctx, generationKey(facilityID, date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: generation: %v", ErrCacheRead, err)
	}
	return gen, nil
}

// Set сохраняет занятые слоты на ttl, только если поколение не изменилось
// с момента чтения generation. Иначе запись пропускается: данные могли устареть.
func (c *Cache) Set(ctx context.Context, facilityID int64, date time.Time, generation int64, slots []types.TimeString) error {
	if !c.Enabled() {
		return nil
	}

	raw, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrCacheWrite, err)
	}

	dataKey := key(facilityID, date)
	genKey := generationKey(facilityID, date)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dataKey, raw, c.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return nil
}

// Invalidate удаляет запись для объекта и даты и увеличивает поколение
func (c *Cache) Invalidate(ctx context.Context, facilityID int64, date time.Time) error {
	if !c.Enabled() {
		return nil
	}

	genKey := generationKey(facilityID, date)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key(facilityID, date))
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return nil
}

// Ping проверяет доступность Redis
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}

// Enabled возвращает true, если кэш подключен к Redis
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func key(facilityID int64, date time.Time) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, facilityID, date.Format(domain.DateFormat))
}

func generationKey(facilityID int64, date time.Time) string {
	return key(facilityID, date) + ":gen"
}
