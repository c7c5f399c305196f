// Package schedule derives and caches building operating profiles.
//
// A building's profile is classified once, on first query, from its service
// class plus a handful of quota draws, and then frozen for the building's
// lifetime. The cache is an owned object with an explicit Open/Close
// lifecycle; nothing here is a package-level singleton.
package schedule

import (
	"fmt"
	"sync"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/district"
	"github.com/mbuendia/CiudadViva/server/internal/domain/rules"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/metrics"
	"github.com/mbuendia/CiudadViva/server/internal/platform/random"
)

// WorkTime is a building's frozen operating profile.
type WorkTime struct {
	WorkAtNight            bool `json:"work_at_night" db:"work_at_night"`
	WorkAtWeekends         bool `json:"work_at_weekends" db:"work_at_weekends"`
	HasExtendedWorkShift   bool `json:"has_extended_work_shift" db:"has_extended_work_shift"`
	HasContinuousWorkShift bool `json:"has_continuous_work_shift" db:"has_continuous_work_shift"`
	WorkShifts             int  `json:"work_shifts" db:"work_shifts"`
}

// DistrictLookup resolves the park district a building sits in, or nil.
type DistrictLookup interface {
	ParkOf(b *building.Building) *district.District
}

// Manager owns the schedule cache. Classification mutates the cache, so
// every entry access goes through the mutex; the simulation goroutine is
// the only writer, but observers read concurrently.
type Manager struct {
	mu      sync.Mutex
	entries map[building.ID]WorkTime
	open    bool

	districts DistrictLookup
	cfg       *config.Config
	rng       random.Source
	eventLog  *events.EventLog

	// day is stamped into emitted events; the engine advances it.
	day int
}

// NewManager creates a closed Manager. Call Open before use.
func NewManager(districts DistrictLookup, cfg *config.Config, rng random.Source, eventLog *events.EventLog) *Manager {
	return &Manager{
		districts: districts,
		cfg:       cfg,
		rng:       rng,
		eventLog:  eventLog,
	}
}

// Open initializes an empty cache. Opening an already-open Manager resets it.
func (m *Manager) Open() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[building.ID]WorkTime)
	m.open = true
}

// Close discards all entries. Queries against a closed Manager return the
// zero profile.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.open = false
}

// SetDay updates the day stamped into schedule events.
func (m *Manager) SetDay(day int) {
	m.mu.Lock()
	m.day = day
	m.mu.Unlock()
}

// Eligible reports whether a building class acquires a work schedule at
// all. Dwelling-type structures never do.
func Eligible(b *building.Building) bool {
	if b == nil {
		return false
	}
	if b.Service == building.ServiceResidential {
		return false
	}
	if b.DormStyle {
		return false
	}
	return true
}

// Get returns the building's profile, classifying it on first query.
// Ineligible buildings yield the zero profile and no cache entry.
func (m *Manager) Get(b *building.Building) WorkTime {
	if !Eligible(b) {
		return WorkTime{}
	}

	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return WorkTime{}
	}
	if wt, ok := m.entries[b.ID]; ok {
		m.mu.Unlock()
		metrics.Get().RecordScheduleLookup(true)
		return wt
	}
	m.mu.Unlock()

	metrics.Get().RecordScheduleLookup(false)
	return m.Create(b)
}

// Create classifies a building and freezes the result. Idempotent: a
// second call returns the cached profile without consuming any new draws.
func (m *Manager) Create(b *building.Building) WorkTime {
	if !Eligible(b) {
		return WorkTime{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return WorkTime{}
	}
	if wt, ok := m.entries[b.ID]; ok {
		return wt
	}

	wt := m.classify(b)
	m.entries[b.ID] = wt

	if m.eventLog != nil {
		m.eventLog.Append(events.CityEvent{
			ID:       events.NewID(),
			Type:     events.EventTypeScheduleAssigned,
			ActorID:  "schedule-manager",
			TargetID: fmt.Sprintf("building-%d", b.ID),
			Payload:  wt,
			GameDay:  m.day,
		})
	}
	return wt
}

// classify performs the four sub-decisions and the shift count. Draw order
// matters: extended, continuous, night, weekend, so that a fixed seed
// yields a stable classification sequence.
func (m *Manager) classify(b *building.Building) WorkTime {
	var extendedDraw bool
	if b.Service == building.ServiceCommercial {
		extendedDraw = random.ShouldOccur(m.rng, 50)
		metrics.Get().RecordScheduleDraw()
	}
	extended := rules.ExtendedFirstShift(b.Service, b.SubService, extendedDraw)

	var continuousDraw bool
	if b.SubService == building.SubServiceCommercialLow && !extended {
		continuousDraw = random.ShouldOccur(m.rng, 50)
		metrics.Get().RecordScheduleDraw()
	}
	continuous := rules.ContinuousShift(b.Service, b.SubService, extended, continuousDraw)

	var nightDraw bool
	if b.SubService == building.SubServiceCommercialLow {
		nightDraw = random.ShouldOccur(m.rng, m.cfg.OpenCommercialAtNightQuota)
		metrics.Get().RecordScheduleDraw()
	}
	night := rules.ActiveAtNight(b.Service, b.SubService, nightDraw)

	var weekendDraw bool
	if b.SubService == building.SubServiceCommercialLow {
		weekendDraw = random.ShouldOccur(m.rng, m.cfg.OpenCommercialAtWeekendsQuota)
		metrics.Get().RecordScheduleDraw()
	}
	weekend := rules.ActiveOnWeekend(b.Service, b.SubService, weekendDraw)

	if b.IsHotel() {
		night = true
		weekend = true
	}
	if b.SubService == building.SubServiceBeautificationParks && m.districts != nil {
		if d := m.districts.ParkOf(b); d != nil && d.HasPolicy(district.PolicyNightTours) {
			night = true
		}
	}

	return WorkTime{
		WorkAtNight:            night,
		WorkAtWeekends:         weekend,
		HasExtendedWorkShift:   extended,
		HasContinuousWorkShift: continuous,
		WorkShifts:             rules.WorkShiftCount(b.Service, b.SubService, b.Level, night, continuous),
	}
}

// Has reports whether a cache entry exists for the handle.
func (m *Manager) Has(id building.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

// Peek returns the cached profile without classifying on a miss.
func (m *Manager) Peek(id building.ID) (WorkTime, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wt, ok := m.entries[id]
	return wt, ok
}

// Set installs a profile directly, overwriting any cached entry. Used by
// state reconstruction and by operator overrides.
func (m *Manager) Set(id building.ID, wt WorkTime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.entries[id] = wt
}

// Remove evicts a building's entry, typically on demolition. The next
// query for the handle reclassifies from scratch.
func (m *Manager) Remove(id building.ID) {
	m.mu.Lock()
	removed := false
	if _, ok := m.entries[id]; ok {
		delete(m.entries, id)
		removed = true
	}
	day := m.day
	m.mu.Unlock()

	if removed && m.eventLog != nil {
		m.eventLog.Append(events.CityEvent{
			ID:       events.NewID(),
			Type:     events.EventTypeScheduleRemoved,
			ActorID:  "schedule-manager",
			TargetID: fmt.Sprintf("building-%d", id),
			GameDay:  day,
		})
	}
}

// Entries returns a copy of the cache, for persistence snapshots.
func (m *Manager) Entries() map[building.ID]WorkTime {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[building.ID]WorkTime, len(m.entries))
	for id, wt := range m.entries {
		out[id] = wt
	}
	return out
}

// Len returns the number of cached entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
