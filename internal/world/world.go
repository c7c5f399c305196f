// Package world holds the live city state: citizen, building and district
// registries shared by the engine subsystems and the router.
//
// ARCHITECTURAL RULE: the single simulation goroutine owns all mutation.
// Systems receive records via the accessors below and modify them in place
// for the duration of a tick; nothing else writes concurrently. Read-only
// consumers (observer API) must go through the city cache, whose snapshots
// are produced on the simulation goroutine.
package world

import (
	"sort"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/domain/district"
)

// World is the authoritative in-memory city.
type World struct {
	citizens  map[citizen.ID]*citizen.Citizen
	buildings map[building.ID]*building.Building
	districts map[district.ID]*district.District

	nextCitizenID  citizen.ID
	nextBuildingID building.ID
}

// New creates an empty city.
func New() *World {
	return &World{
		citizens:  make(map[citizen.ID]*citizen.Citizen),
		buildings: make(map[building.ID]*building.Building),
		districts: make(map[district.ID]*district.District),
	}
}

// ---------------------------------------------------------
// Citizens
// ---------------------------------------------------------

// SpawnCitizen allocates a handle and registers a new citizen.
func (w *World) SpawnCitizen(name string, home building.ID) *citizen.Citizen {
	w.nextCitizenID++
	c := citizen.New(w.nextCitizenID, name, home)
	w.citizens[c.ID] = c
	return c
}

// AddCitizen registers a reconstructed citizen under its existing handle.
func (w *World) AddCitizen(c *citizen.Citizen) {
	w.citizens[c.ID] = c
	if c.ID > w.nextCitizenID {
		w.nextCitizenID = c.ID
	}
}

// Citizen returns the record for a handle, or nil.
func (w *World) Citizen(id citizen.ID) *citizen.Citizen {
	return w.citizens[id]
}

// ReleaseCitizen frees a citizen's simulation slot entirely.
func (w *World) ReleaseCitizen(id citizen.ID) {
	delete(w.citizens, id)
}

// CitizenCount returns the number of live citizen records.
func (w *World) CitizenCount() int { return len(w.citizens) }

// ForEachCitizen visits every citizen in ascending handle order. Stable
// iteration keeps tick processing deterministic for a given seed.
func (w *World) ForEachCitizen(fn func(*citizen.Citizen)) {
	ids := make([]citizen.ID, 0, len(w.citizens))
	for id := range w.citizens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if c, ok := w.citizens[id]; ok {
			fn(c)
		}
	}
}

// ---------------------------------------------------------
// Buildings
// ---------------------------------------------------------

// AddBuilding registers a building and returns it. A zero ID allocates the
// next free handle.
func (w *World) AddBuilding(b *building.Building) *building.Building {
	if b.ID == 0 {
		w.nextBuildingID++
		b.ID = w.nextBuildingID
	} else if b.ID > w.nextBuildingID {
		w.nextBuildingID = b.ID
	}
	w.buildings[b.ID] = b
	return b
}

// Building returns the snapshot for a handle, or nil for 0/unknown.
func (w *World) Building(id building.ID) *building.Building {
	if id == 0 {
		return nil
	}
	return w.buildings[id]
}

// RemoveBuilding deletes a demolished building. The schedule cache entry is
// evicted by the caller; the store only owns the record.
func (w *World) RemoveBuilding(id building.ID) {
	delete(w.buildings, id)
}

// BuildingCount returns the number of registered buildings.
func (w *World) BuildingCount() int { return len(w.buildings) }

// ForEachBuilding visits every building in ascending handle order.
func (w *World) ForEachBuilding(fn func(*building.Building)) {
	ids := make([]building.ID, 0, len(w.buildings))
	for id := range w.buildings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if b, ok := w.buildings[id]; ok {
			fn(b)
		}
	}
}

// ServiceOf returns the service class of a building handle, with
// ServiceNone for 0/unknown handles.
func (w *World) ServiceOf(id building.ID) building.Service {
	b := w.Building(id)
	if b == nil {
		return building.ServiceNone
	}
	return b.Service
}

// ModifyGoods applies a material-buffer adjustment against a building for
// the given transfer reason. The delta is clamped to the available buffer
// and the applied amount is written back, mirroring the fire-and-forget
// material accounting of the host model.
func (w *World) ModifyGoods(id building.ID, reason building.TransferReason, delta *int) {
	b := w.Building(id)
	if b == nil || reason != building.TransferShopping {
		*delta = 0
		return
	}
	if *delta < 0 && b.Goods+*delta < 0 {
		*delta = -b.Goods
	}
	b.Goods += *delta
}

// ---------------------------------------------------------
// Districts
// ---------------------------------------------------------

// AddDistrict registers a park district.
func (w *World) AddDistrict(d *district.District) *district.District {
	w.districts[d.ID] = d
	return d
}

// District returns the district for a handle, or nil for 0/unknown.
func (w *World) District(id district.ID) *district.District {
	if id == 0 {
		return nil
	}
	return w.districts[id]
}

// ParkOf returns the district a building sits in, or nil.
func (w *World) ParkOf(b *building.Building) *district.District {
	if b == nil {
		return nil
	}
	return w.District(district.ID(b.Park))
}

// ForEachDistrict visits every district.
func (w *World) ForEachDistrict(fn func(*district.District)) {
	for _, d := range w.districts {
		fn(d)
	}
}
