// Package district defines park-area districts and their policies.
// This package is PURE and must NOT import any infrastructure packages.
package district

// ID is the opaque handle of a park district. 0 means "no district".
type ID uint8

// ParkPolicies is the bit set of policies enabled on a park district.
type ParkPolicies uint16

const (
	PolicyNone ParkPolicies = 0
	// PolicyNightTours keeps park attractions open after dark.
	PolicyNightTours ParkPolicies = 1 << 0
)

// District represents one park area of the city.
type District struct {
	ID       ID           `json:"id"`
	Name     string       `json:"name"`
	Policies ParkPolicies `json:"policies"`
}

// New creates a district with no policies enabled.
func New(id ID, name string) *District {
	return &District{ID: id, Name: name}
}

// HasPolicy reports whether the given policy is enabled.
func (d *District) HasPolicy(p ParkPolicies) bool {
	return d != nil && d.Policies&p != 0
}

// SetPolicy enables or disables a policy.
func (d *District) SetPolicy(p ParkPolicies, on bool) {
	if on {
		d.Policies |= p
	} else {
		d.Policies &^= p
	}
}
