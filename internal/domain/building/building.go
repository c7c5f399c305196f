// Package building defines the core domain vocabulary for city buildings:
// service classes, status flags, transfer reasons and the building snapshot.
// This package is PURE and must NOT import any infrastructure packages.
package building

// ID is the opaque handle of a building record. 0 means "no building".
type ID uint16

// Service is the top-level category of a building.
type Service uint8

const (
	ServiceNone Service = iota
	ServiceResidential
	ServiceCommercial
	ServiceIndustrial
	ServiceOffice
	ServiceElectricity
	ServiceWater
	ServiceHealthCare
	ServicePoliceDepartment
	ServiceFireDepartment
	ServiceEducation
	ServicePublicTransport
	ServiceBeautification
	ServiceMonument
	ServiceCitizen
	ServiceGarbage
	ServiceRoad
	ServiceDisaster
	ServiceNatural
	ServiceTourism
	ServicePlayerIndustry
	ServicePlayerEducation
	ServiceMuseums
	ServiceVarsitySports
	ServiceFishing
	ServiceHotel
	ServiceServicePoint

	serviceCount // keep last
)

// SubService refines a Service where the schedule rules need it.
type SubService uint8

const (
	SubServiceNone SubService = iota
	SubServiceResidentialLow
	SubServiceResidentialHigh
	SubServiceCommercialLow
	SubServiceCommercialHigh
	SubServiceCommercialTourist
	SubServiceCommercialLeisure
	SubServiceIndustrialGeneric
	SubServiceIndustrialFarming
	SubServiceIndustrialForestry
	SubServiceIndustrialOil
	SubServiceIndustrialOre
	SubServicePlayerIndustryFarming
	SubServicePlayerIndustryForestry
	SubServicePlayerIndustryOil
	SubServicePlayerIndustryOre
	SubServiceBeautificationParks

	subServiceCount // keep last
)

// Level is the upgrade level of a zoned or campus building.
type Level uint8

const (
	Level1 Level = 1
	Level2 Level = 2
	Level3 Level = 3
	Level4 Level = 4
	Level5 Level = 5
)

// Flags is the bit set of building status flags.
type Flags uint16

const (
	FlagNone        Flags = 0
	FlagActive      Flags = 1 << 0
	FlagEvacuating  Flags = 1 << 1
	FlagDowngrading Flags = 1 << 2
	FlagCollapsed   Flags = 1 << 3
)

// EventFlags describes the lifecycle phase of a city event hosted at a
// building. A dormant event has no flags set.
type EventFlags uint8

const (
	EventNone      EventFlags = 0
	EventPreparing EventFlags = 1 << 0
	EventActive    EventFlags = 1 << 1
	EventReady     EventFlags = 1 << 2
)

// Live reports whether the event is in any phase a visitor would wait out.
func (f EventFlags) Live() bool {
	return f&(EventPreparing|EventActive|EventReady) != 0
}

// TransferReason is the categorical code attached to a routing or material
// transfer request.
type TransferReason uint8

const (
	TransferNone TransferReason = iota
	TransferSick
	TransferDead
	TransferShopping
	TransferEvacuate
	TransferEvacuateVip
)

// String returns the wire name of a transfer reason.
func (r TransferReason) String() string {
	switch r {
	case TransferSick:
		return "SICK"
	case TransferDead:
		return "DEAD"
	case TransferShopping:
		return "SHOPPING"
	case TransferEvacuate:
		return "EVACUATE"
	case TransferEvacuateVip:
		return "EVACUATE_VIP"
	default:
		return "NONE"
	}
}

// Position is a building's placement on the city plane.
type Position struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// DistSq returns the squared distance between two positions. Routing only
// compares distances, so the square root is never taken.
func (p Position) DistSq(o Position) float64 {
	dx := p.X - o.X
	dz := p.Z - o.Z
	return dx*dx + dz*dz
}

// Building is the snapshot of one structure. The service class, sub-service
// and level never change for the lifetime of a handle; a rebuild allocates
// a new record (and the schedule cache entry is evicted by the owner).
type Building struct {
	ID         ID         `json:"id"`
	Name       string     `json:"name"`
	Service    Service    `json:"service"`
	SubService SubService `json:"sub_service"`
	Level      Level      `json:"level"`
	Position   Position   `json:"position"`
	Flags      Flags      `json:"flags"`

	// EventID references the city event currently hosted here, 0 for none.
	EventID    uint16     `json:"event_id"`
	EventState EventFlags `json:"event_state"`

	// Goods is the shopping-goods material buffer for commercial buildings.
	Goods int `json:"goods"`

	// DormStyle marks barracks/dorm auxiliary buildings that behave as
	// housing even though their service class is not residential.
	DormStyle bool `json:"dorm_style"`

	// Park is the park-area district this building sits in, 0 for none.
	Park uint8 `json:"park"`
}

func (b *Building) Active() bool      { return b.Flags&FlagActive != 0 }
func (b *Building) Evacuating() bool  { return b.Flags&FlagEvacuating != 0 }
func (b *Building) Downgrading() bool { return b.Flags&FlagDowngrading != 0 }

// SetFlag sets or clears a single status flag.
func (b *Building) SetFlag(f Flags, on bool) {
	if on {
		b.Flags |= f
	} else {
		b.Flags &^= f
	}
}

// IsHotel reports whether the building takes overnight guests. Hotels keep
// reception staffed around the clock regardless of their zoning rules.
func (b *Building) IsHotel() bool {
	return b.Service == ServiceHotel
}

// AllServices enumerates every service value, for table-driven totality checks.
func AllServices() []Service {
	out := make([]Service, 0, int(serviceCount))
	for s := ServiceNone; s < serviceCount; s++ {
		out = append(out, s)
	}
	return out
}

// AllSubServices enumerates every sub-service value.
func AllSubServices() []SubService {
	out := make([]SubService, 0, int(subServiceCount))
	for s := SubServiceNone; s < subServiceCount; s++ {
		out = append(out, s)
	}
	return out
}
