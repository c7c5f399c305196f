// Package citizen defines the core domain entity for city residents.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package citizen

import "github.com/mbuendia/CiudadViva/server/internal/domain/building"

// ID is the opaque handle of a citizen record. 0 is never a valid citizen.
type ID uint32

// Flags is the bit set of citizen status flags.
type Flags uint16

const (
	FlagNone       Flags = 0
	FlagSick       Flags = 1 << 0
	FlagDead       Flags = 1 << 1
	FlagArrested   Flags = 1 << 2
	FlagCollapsed  Flags = 1 << 3
	FlagEvacuating Flags = 1 << 4
	FlagNeedGoods  Flags = 1 << 5
)

// Location describes where a citizen currently is within the daily cycle.
type Location uint8

const (
	LocationHome Location = iota
	LocationWork
	LocationVisit
	LocationMoving
)

// String returns the human-readable location name for logs and snapshots.
func (l Location) String() string {
	switch l {
	case LocationHome:
		return "HOME"
	case LocationWork:
		return "WORK"
	case LocationVisit:
		return "VISIT"
	case LocationMoving:
		return "MOVING"
	default:
		return "UNKNOWN"
	}
}

// Citizen represents the live state of one resident.
//
// The simulation goroutine has exclusive ownership of all mutation; a
// Citizen handed to a subsystem is that subsystem's to modify for the
// duration of the call.
type Citizen struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`

	Flags    Flags    `json:"flags"`
	Location Location `json:"location"`

	HomeBuilding  building.ID `json:"home_building"`
	WorkBuilding  building.ID `json:"work_building"`
	VisitBuilding building.ID `json:"visit_building"`

	// Vehicle is non-zero while the citizen is mid-transit on a scheduled
	// move. A citizen with a vehicle must not have its home/work/visit
	// associations reassigned until it settles (Vehicle == 0).
	Vehicle uint16 `json:"vehicle"`

	// Instance is non-zero while the citizen has a spawned agent in the
	// world. 0 means the citizen exists only as a record.
	Instance uint16 `json:"instance"`

	// Movement bookkeeping for the scheduled-move model: remaining travel
	// ticks and the destination committed at departure.
	TravelTicksLeft int         `json:"travel_ticks_left"`
	MoveTarget      building.ID `json:"move_target"`

	// Goods is the household goods level driving the shopping demand cycle.
	Goods int `json:"goods"`
}

// New creates a citizen record with a full pantry and no status flags.
func New(id ID, name string, home building.ID) *Citizen {
	return &Citizen{
		ID:           id,
		Name:         name,
		Location:     LocationHome,
		HomeBuilding: home,
		Goods:        100,
	}
}

func (c *Citizen) Dead() bool       { return c.Flags&FlagDead != 0 }
func (c *Citizen) Sick() bool       { return c.Flags&FlagSick != 0 }
func (c *Citizen) Arrested() bool   { return c.Flags&FlagArrested != 0 }
func (c *Citizen) Collapsed() bool  { return c.Flags&FlagCollapsed != 0 }
func (c *Citizen) Evacuating() bool { return c.Flags&FlagEvacuating != 0 }
func (c *Citizen) NeedsGoods() bool { return c.Flags&FlagNeedGoods != 0 }

// SetFlag sets or clears a single status flag.
func (c *Citizen) SetFlag(f Flags, on bool) {
	if on {
		c.Flags |= f
	} else {
		c.Flags &^= f
	}
}

// SetHome reassigns the home building. 0 detaches the citizen from housing.
func (c *Citizen) SetHome(id building.ID) { c.HomeBuilding = id }

// SetWorkplace reassigns the work building. 0 detaches the citizen from work.
func (c *Citizen) SetWorkplace(id building.ID) { c.WorkBuilding = id }

// SetVisitplace reassigns the visit target. 0 ends the visit association.
func (c *Citizen) SetVisitplace(id building.ID) { c.VisitBuilding = id }

// MidTransit reports whether the citizen is riding a scheduled move and
// must not be reassigned until it settles.
func (c *Citizen) MidTransit() bool { return c.Vehicle != 0 }
