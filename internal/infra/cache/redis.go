// Package cache provides Redis-style caching for quick state reads.
// Cached snapshots serve the observer API; they are not the source of
// truth, which is the event ledger.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RedisClient is an interface for Redis operations.
// This allows for easy mocking in tests and an in-memory fallback.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, values ...interface{}) error
}

// CityCache provides fast access to citizen state snapshots.
type CityCache struct {
	client     RedisClient
	expiration time.Duration
}

// NewCityCache creates a new city cache instance.
func NewCityCache(client RedisClient) *CityCache {
	return &CityCache{
		client:     client,
		expiration: 15 * time.Minute,
	}
}

// CitizenState represents the cached state of a citizen.
type CitizenState struct {
	CitizenID     uint32 `json:"citizen_id"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	HomeBuilding  uint16 `json:"home_building"`
	WorkBuilding  uint16 `json:"work_building"`
	VisitBuilding uint16 `json:"visit_building"`
	Sick          bool   `json:"sick"`
	Dead          bool   `json:"dead"`
	Arrested      bool   `json:"arrested"`
	Evacuating    bool   `json:"evacuating"`
	Goods         int    `json:"goods"`
	LastSync      int64  `json:"last_sync"` // Unix timestamp
}

// SetCitizenState caches the current state of a citizen.
func (c *CityCache) SetCitizenState(ctx context.Context, cityID string, state CitizenState) error {
	key := c.citizenKey(cityID, state.CitizenID)

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal citizen state: %w", err)
	}

	return c.client.Set(ctx, key, data, c.expiration)
}

// GetCitizenState retrieves the cached state of a citizen.
func (c *CityCache) GetCitizenState(ctx context.Context, cityID string, citizenID uint32) (*CitizenState, error) {
	key := c.citizenKey(cityID, citizenID)

	data, err := c.client.Get(ctx, key)
	if err != nil {
		return nil, err // Cache miss or error
	}

	var state CitizenState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal citizen state: %w", err)
	}

	return &state, nil
}

// SetCityState caches the current state of all citizens, using a hash for
// efficient storage.
func (c *CityCache) SetCityState(ctx context.Context, cityID string, states map[uint32]CitizenState) error {
	key := c.cityKey(cityID)

	values := make([]interface{}, 0, len(states)*2)
	for id, state := range states {
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal state for citizen %d: %w", id, err)
		}
		values = append(values, fmt.Sprintf("%d", id), string(data))
	}

	return c.client.HSet(ctx, key, values...)
}

// GetCityState retrieves the cached state of all citizens.
func (c *CityCache) GetCityState(ctx context.Context, cityID string) (map[uint32]CitizenState, error) {
	key := c.cityKey(cityID)

	data, err := c.client.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}

	states := make(map[uint32]CitizenState)
	for _, jsonStr := range data {
		var state CitizenState
		if err := json.Unmarshal([]byte(jsonStr), &state); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached citizen: %w", err)
		}
		states[state.CitizenID] = state
	}

	return states, nil
}

// InvalidateCity removes all cached state for a city.
func (c *CityCache) InvalidateCity(ctx context.Context, cityID string) error {
	key := c.cityKey(cityID)
	return c.client.Del(ctx, key)
}

// citizenKey generates the cache key for a specific citizen.
func (c *CityCache) citizenKey(cityID string, citizenID uint32) string {
	return fmt.Sprintf("city:%s:citizen:%d", cityID, citizenID)
}

// cityKey generates the cache key for all citizens of a city.
func (c *CityCache) cityKey(cityID string) string {
	return fmt.Sprintf("city:%s:citizens", cityID)
}
