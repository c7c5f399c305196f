package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryClientExpiresLazily(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient()

	if err := m.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := m.Get(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("expected fresh value, got %q err %v", got, err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("expected cache miss after expiry, got %v", err)
	}
}

func TestMemoryClientMissesUnknownKeys(t *testing.T) {
	m := NewMemoryClient()
	if _, err := m.Get(context.Background(), "nope"); err != ErrCacheMiss {
		t.Errorf("expected cache miss, got %v", err)
	}
}

func TestCityCacheRoundTripsCitizenState(t *testing.T) {
	ctx := context.Background()
	cc := NewCityCache(NewMemoryClient())

	state := CitizenState{
		CitizenID:    7,
		Name:         "Lucía",
		Location:     "VISIT",
		HomeBuilding: 2,
		Sick:         true,
		Goods:        85,
		LastSync:     1700000000,
	}
	if err := cc.SetCitizenState(ctx, "CITY_1", state); err != nil {
		t.Fatalf("SetCitizenState failed: %v", err)
	}

	got, err := cc.GetCitizenState(ctx, "CITY_1", 7)
	if err != nil {
		t.Fatalf("GetCitizenState failed: %v", err)
	}
	if got.Name != "Lucía" || !got.Sick || got.Goods != 85 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestCityCacheKeysAreScopedPerCity(t *testing.T) {
	ctx := context.Background()
	cc := NewCityCache(NewMemoryClient())

	if err := cc.SetCitizenState(ctx, "CITY_1", CitizenState{CitizenID: 7}); err != nil {
		t.Fatalf("SetCitizenState failed: %v", err)
	}
	if _, err := cc.GetCitizenState(ctx, "CITY_2", 7); err != ErrCacheMiss {
		t.Errorf("another city must not see the entry, got %v", err)
	}
}

func TestCityStateHashAndInvalidation(t *testing.T) {
	ctx := context.Background()
	cc := NewCityCache(NewMemoryClient())

	states := map[uint32]CitizenState{
		1: {CitizenID: 1, Name: "Ana"},
		2: {CitizenID: 2, Name: "Bruno", Dead: true},
	}
	if err := cc.SetCityState(ctx, "CITY_1", states); err != nil {
		t.Fatalf("SetCityState failed: %v", err)
	}

	got, err := cc.GetCityState(ctx, "CITY_1")
	if err != nil {
		t.Fatalf("GetCityState failed: %v", err)
	}
	if len(got) != 2 || got[2].Name != "Bruno" || !got[2].Dead {
		t.Errorf("unexpected city state: %+v", got)
	}

	if err := cc.InvalidateCity(ctx, "CITY_1"); err != nil {
		t.Fatalf("InvalidateCity failed: %v", err)
	}
	got, err = cc.GetCityState(ctx, "CITY_1")
	if err != nil {
		t.Fatalf("GetCityState after invalidation failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty state after invalidation, got %d entries", len(got))
	}
}
