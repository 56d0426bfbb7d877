package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// CacheBuilder provides a fluent interface for cache reads and writes.
type CacheBuilder struct {
	cache      valkey.Client
	key        string
	value      string
	ttl        time.Duration
	ctx        context.Context
	ctxTimeout time.Duration
	err        error
}

func NewCacheBuilder(cache CacheClient, key string) *CacheBuilder {
	return &CacheBuilder{
		cache:      cache,
		key:        key,
		ttl:        1 * time.Hour,
		ctxTimeout: 5 * time.Second,
		ctx:        context.Background(),
	}
}

func (cb *CacheBuilder) WithValue(value string) *CacheBuilder {
	cb.value = value
	return cb
}

func (cb *CacheBuilder) WithStruct(value any) *CacheBuilder {
	bytes, err := json.Marshal(value)
	if err != nil {
		cb.err = fmt.Errorf("failed to marshal value to json: %w", err)
		return cb
	}

	cb.value = string(bytes)
	return cb
}

func (cb *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	cb.ttl = ttl
	return cb
}

func (cb *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	cb.ctx = ctx
	return cb
}

func (cb *CacheBuilder) Set() error {
	if cb.err != nil {
		return cb.err
	}
	if cb.cache == nil {
		return fmt.Errorf("cache client is not configured")
	}

	ctx, cancel := context.WithTimeout(cb.ctx, cb.ctxTimeout)
	defer cancel()

	cmd := cb.cache.B().Set().Key(cb.key).Value(cb.value).Ex(cb.ttl).Build()
	return cb.cache.Do(ctx, cmd).Error()
}

// Get reads the key into target (JSON decoded when target is a struct).
// Returns false with no error when the key is absent.
func (cb *CacheBuilder) Get(target any) (bool, error) {
	if cb.err != nil {
		return false, cb.err
	}
	if cb.cache == nil {
		return false, fmt.Errorf("cache client is not configured")
	}

	ctx, cancel := context.WithTimeout(cb.ctx, cb.ctxTimeout)
	defer cancel()

	resp := cb.cache.Do(ctx, cb.cache.B().Get().Key(cb.key).Build())
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, err
	}

	raw, err := resp.ToString()
	if err != nil {
		return false, err
	}

	if strTarget, ok := target.(*string); ok {
		*strTarget = raw
		return true, nil
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return false, err
	}

	return true, nil
}

// Exists reports whether the key is present.
func (cb *CacheBuilder) Exists() (bool, error) {
	if cb.cache == nil {
		return false, fmt.Errorf("cache client is not configured")
	}

	ctx, cancel := context.WithTimeout(cb.ctx, cb.ctxTimeout)
	defer cancel()

	count, err := cb.cache.Do(ctx, cb.cache.B().Exists().Key(cb.key).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (cb *CacheBuilder) Delete() error {
	if cb.cache == nil {
		return fmt.Errorf("cache client is not configured")
	}

	ctx, cancel := context.WithTimeout(cb.ctx, cb.ctxTimeout)
	defer cancel()

	return cb.cache.Do(ctx, cb.cache.B().Del().Key(cb.key).Build()).Error()
}
