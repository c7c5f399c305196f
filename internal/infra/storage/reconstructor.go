// State reconstruction at simulation load: citizens, frozen operating
// profiles and the clock come back from their snapshot tables, then the
// event ledger replays anything newer than the snapshots.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/schedule"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// Reconstructor rebuilds city state from persistence.
type Reconstructor struct {
	events    EventRepository
	citizens  CitizenRepository
	worktimes WorkTimeRepository
	clock     ClockRepository
}

// NewReconstructor creates a state reconstructor over the repositories.
func NewReconstructor(events EventRepository, citizens CitizenRepository, worktimes WorkTimeRepository, clock ClockRepository) *Reconstructor {
	return &Reconstructor{
		events:    events,
		citizens:  citizens,
		worktimes: worktimes,
		clock:     clock,
	}
}

// Restore loads citizens and operating profiles into a live city and
// returns the persisted clock, or nil when the city is fresh. Buildings
// are not persisted; the scenario bootstrap lays the city out and the
// restored profiles re-freeze the original classification draws.
func (r *Reconstructor) Restore(ctx context.Context, cityID string, w *world.World, m *schedule.Manager) (*ClockState, error) {
	snaps, err := r.citizens.GetByCityID(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load citizen snapshots: %w", err)
	}
	for _, s := range snaps {
		c := &citizen.Citizen{
			ID:            citizen.ID(s.CitizenID),
			Name:          s.Name,
			Flags:         citizen.Flags(s.Flags),
			Location:      citizen.Location(s.Location),
			HomeBuilding:  building.ID(s.HomeBuilding),
			WorkBuilding:  building.ID(s.WorkBuilding),
			VisitBuilding: building.ID(s.VisitBuilding),
			Goods:         s.Goods,
		}
		if !c.Dead() {
			c.Instance = uint16(c.ID)
		}
		w.AddCitizen(c)
	}

	records, err := r.worktimes.GetByCityID(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load operating profiles: %w", err)
	}
	for _, rec := range records {
		m.Set(building.ID(rec.BuildingID), schedule.WorkTime{
			WorkAtNight:            rec.WorkAtNight,
			WorkAtWeekends:         rec.WorkAtWeekends,
			HasExtendedWorkShift:   rec.HasExtendedWorkShift,
			HasContinuousWorkShift: rec.HasContinuousWorkShift,
			WorkShifts:             rec.WorkShifts,
		})
	}

	state, err := r.clock.Load(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clock: %w", err)
	}
	if state == nil {
		return nil, nil
	}

	// Replay ledger entries from the persisted day forward so deaths and
	// demolitions that raced the snapshot writer are not resurrected.
	dayEvents, err := r.events.GetByGameDay(ctx, cityID, state.GameDay)
	if err != nil {
		return nil, fmt.Errorf("failed to replay day %d: %w", state.GameDay, err)
	}
	for _, e := range dayEvents {
		r.applyEvent(w, m, e)
	}

	return state, nil
}

// applyEvent replays one ledger entry against the restored state. Only
// events that remove records matter here; everything else is already in
// the snapshots.
func (r *Reconstructor) applyEvent(w *world.World, m *schedule.Manager, e CityEventRecord) {
	switch e.EventType {
	case "CITIZEN_RELEASED":
		if id, ok := actorHandle(e.ActorID, "citizen-"); ok {
			if c := w.Citizen(citizen.ID(id)); c != nil && c.Dead() {
				w.ReleaseCitizen(citizen.ID(id))
			}
		}
	case "SCHEDULE_REMOVED":
		if id, ok := actorHandle(e.TargetID, "building-"); ok {
			m.Remove(building.ID(id))
		}
	case "BUILDING_REMOVED":
		if v, ok := e.Payload["building_id"].(float64); ok {
			w.RemoveBuilding(building.ID(v))
			m.Remove(building.ID(v))
		}
	}
}

// actorHandle parses handles of the form "citizen-42" or "building-7".
func actorHandle(s, prefix string) (uint64, bool) {
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, prefix), 10, 32)
	if err != nil {
		return 0, false
	}
	return v, true
}
