// Package routing locates destination buildings for citizens and schedules
// their movement. Movement is fire-and-forget: StartMoving books a future
// arrival that the movement system completes, there is no synchronous
// completion signal.
package routing

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// Router answers destination queries against the live city.
type Router struct {
	world    *world.World
	cfg      *config.Config
	eventLog *events.EventLog
	log      *logger.Logger

	nextVehicle uint16
	day         int
}

// NewRouter creates a router over the given city.
func NewRouter(w *world.World, cfg *config.Config, eventLog *events.EventLog, log *logger.Logger) *Router {
	return &Router{
		world:    w,
		cfg:      cfg,
		eventLog: eventLog,
		log:      log,
	}
}

// SetDay updates the day stamped into movement events.
func (r *Router) SetDay(day int) {
	r.day = day
}

// FindHospital routes a citizen from a building to the nearest active
// healthcare facility for the given transfer reason. Returns false when
// the city has none.
func (r *Router) FindHospital(c *citizen.Citizen, from building.ID, reason building.TransferReason) bool {
	dest := r.nearest(from, func(b *building.Building) bool {
		return b.Service == building.ServiceHealthCare && b.Active()
	})
	if dest == nil {
		return false
	}
	c.SetVisitplace(dest.ID)
	r.StartMoving(c, from, dest.ID)
	return true
}

// FindEvacuationPlace routes a citizen to the nearest active shelter
// compatible with the transfer reason. Returns false when none exists.
func (r *Router) FindEvacuationPlace(c *citizen.Citizen, from building.ID, reason building.TransferReason) bool {
	dest := r.nearest(from, func(b *building.Building) bool {
		return b.Service == building.ServiceDisaster && b.Active() && !b.Evacuating()
	})
	if dest == nil {
		return false
	}
	c.SetVisitplace(dest.ID)
	r.StartMoving(c, from, dest.ID)
	return true
}

// GetEvacuationReason infers why a group is being relocated from the class
// of the building being evacuated. Tourist accommodation gets the VIP
// reason so shelters prioritize visitors with nowhere else to go.
func (r *Router) GetEvacuationReason(from building.ID) building.TransferReason {
	b := r.world.Building(from)
	if b == nil {
		return building.TransferEvacuate
	}
	switch b.Service {
	case building.ServiceTourism, building.ServiceHotel:
		return building.TransferEvacuateVip
	default:
		return building.TransferEvacuate
	}
}

// StartMoving books a citizen's trip from one building to another. The
// citizen despawns into a vehicle and stays mid-transit until the movement
// system lands the arrival.
func (r *Router) StartMoving(c *citizen.Citizen, from, to building.ID) {
	r.nextVehicle++
	if r.nextVehicle == 0 {
		r.nextVehicle = 1
	}

	c.Vehicle = r.nextVehicle
	c.Instance = 0
	c.Location = citizen.LocationMoving
	c.MoveTarget = to
	c.TravelTicksLeft = r.cfg.TravelTicks

	if r.log != nil {
		r.log.Info("Citizen %d departs building %d for building %d", c.ID, from, to)
	}
	if r.eventLog != nil {
		r.eventLog.Append(events.CityEvent{
			ID:       events.NewID(),
			Type:     events.EventTypeMoveStarted,
			ActorID:  fmt.Sprintf("citizen-%d", c.ID),
			TargetID: fmt.Sprintf("building-%d", to),
			Payload: map[string]interface{}{
				"from":    int(from),
				"to":      int(to),
				"vehicle": int(c.Vehicle),
				"ticks":   c.TravelTicksLeft,
			},
			GameDay: r.day,
		})
	}
}

// nearest finds the closest building accepted by the filter, measured from
// the origin handle. A zero origin falls back to the first match.
func (r *Router) nearest(from building.ID, accept func(*building.Building) bool) *building.Building {
	origin := r.world.Building(from)

	var best *building.Building
	var bestDist float64
	r.world.ForEachBuilding(func(b *building.Building) {
		if b.ID == from || !accept(b) {
			return
		}
		if origin == nil {
			if best == nil {
				best = b
			}
			return
		}
		d := origin.Position.DistSq(b.Position)
		if best == nil || d < bestDist {
			best = b
			bestDist = d
		}
	})
	return best
}
