// Package cache - read-through кэш задач в Redis
package cache

import (
	"bountyBuddy/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultOpTimeout = 300 * time.Millisecond
	defaultCooldown  = 5 * time.Second
)

// ErrBypassed возвращается, пока кэш выключен после ошибки Redis
var ErrBypassed = errors.New("кэш временно пропускается")

type Cache struct {
	client    *redis.Client
	prefix    string
	ttl       time.Duration
	opTimeout time.Duration
	cooldown  time.Duration
	downUntil atomic.Int64 // unix nano
	stats     Stats
}

// Stats - счётчики обращений к кэшу
type Stats struct {
	Hits     atomic.Uint64
	Misses   atomic.Uint64
	Sets     atomic.Uint64
	Deletes  atomic.Uint64
	Errors   atomic.Uint64
	Bypassed atomic.Uint64
}

type StatsSnapshot struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	Sets     uint64  `json:"sets"`
	Deletes  uint64  `json:"deletes"`
	Errors   uint64  `json:"errors"`
	Bypassed uint64  `json:"bypassed"`
	HitRate  float64 `json:"hitRate"`
}

type Option func(*Cache)

// WithOpTimeout ограничивает одно обращение к Redis
func WithOpTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// WithCooldown задаёт паузу после ошибки; 0 отключает паузу
func WithCooldown(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.cooldown = d
		}
	}
}

// NewClient собирает клиента Redis с таймаутами из конфигурации
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})
}

// NewFromConfig - клиент и кэш по секции redis
func NewFromConfig(cfg config.RedisConfig) *Cache {
	return New(NewClient(cfg), cfg.Prefix, cfg.TTL,
		WithOpTimeout(cfg.OpTimeout),
		WithCooldown(cfg.Cooldown),
	)
}

func New(client *redis.Client, prefix string, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		client:    client,
		prefix:    prefix,
		ttl:       ttl,
		opTimeout: defaultOpTimeout,
		cooldown:  defaultCooldown,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) bypassed() bool {
	return time.Now().UnixNano() < c.downUntil.Load()
}

func (c *Cache) fail() {
	c.stats.Errors.Add(1)
	if c.cooldown > 0 {
		c.downUntil.Store(time.Now().Add(c.cooldown).UnixNano())
	}
}

// Get возвращает true при попадании; промах - это (false, nil)
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c.bypassed() {
		c.stats.Bypassed.Add(1)
		return false, ErrBypassed
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.Misses.Add(1)
			return false, nil
		}
		c.fail()
		return false, fmt.Errorf("чтение из кэша: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.Errors.Add(1)
		return false, fmt.Errorf("разбор значения кэша: %w", err)
	}

	c.stats.Hits.Add(1)
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c.bypassed() {
		c.stats.Bypassed.Add(1)
		return ErrBypassed
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.stats.Errors.Add(1)
		return fmt.Errorf("сериализация значения кэша: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.fail()
		return fmt.Errorf("запись в кэш: %w", err)
	}

	c.stats.Sets.Add(1)
	return nil
}

// Delete выполняется и во время паузы, чтобы не оставить устаревшую запись
func (c *Cache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.fail()
		return fmt.Errorf("удаление из кэша: %w", err)
	}

	c.stats.Deletes.Add(1)
	return nil
}

func (c *Cache) GetStats() StatsSnapshot {
	hits := c.stats.Hits.Load()
	misses := c.stats.Misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return StatsSnapshot{
		Hits:     hits,
		Misses:   misses,
		Sets:     c.stats.Sets.Load(),
		Deletes:  c.stats.Deletes.Load(),
		Errors:   c.stats.Errors.Load(),
		Bypassed: c.stats.Bypassed.Load(),
		HitRate:  hitRate,
	}
}

// RegisterMetrics отдаёт счётчики кэша как bounty_cache_operations_total с атрибутом op
func (c *Cache) RegisterMetrics(meter metric.Meter) error {
	_, err := meter.Int64ObservableCounter(
		"bounty_cache_operations_total",
		metric.WithDescription("Number of task cache operations by outcome"),
		metric.WithUnit("{operation}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			s := c.GetStats()
			for op, v := range map[string]uint64{
				"hit":    s.Hits,
				"miss":   s.Misses,
				"set":    s.Sets,
				"delete": s.Deletes,
				"error":  s.Errors,
				"bypass": s.Bypassed,
			} {
				o.Observe(int64(v), metric.WithAttributes(attribute.String("op", op)))
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("счётчик операций кэша: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
