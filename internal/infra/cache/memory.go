package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned on a lookup for a missing or expired key.
var ErrCacheMiss = errors.New("cache: miss")

// MemoryClient is an in-process RedisClient used when no Redis server is
// configured. Expiration is enforced lazily on read.
type MemoryClient struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	hashes map[string]map[string]string
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryClient creates an empty in-memory cache client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		values: make(map[string]memoryEntry),
		hashes: make(map[string]map[string]string),
	}
}

func (m *MemoryClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	entry, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.values, key)
		m.mu.Unlock()
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (m *MemoryClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.New("cache: unsupported value type")
	}

	entry := memoryEntry{value: s}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	m.mu.Lock()
	m.values[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.hashes, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryClient) HSet(ctx context.Context, key string, values ...interface{}) error {
	if len(values)%2 != 0 {
		return errors.New("cache: HSet requires field/value pairs")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for i := 0; i < len(values); i += 2 {
		field, ok1 := values[i].(string)
		val, ok2 := values[i+1].(string)
		if !ok1 || !ok2 {
			return errors.New("cache: HSet fields and values must be strings")
		}
		h[field] = val
	}
	return nil
}

var _ RedisClient = (*MemoryClient)(nil)
