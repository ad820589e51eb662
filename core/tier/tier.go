// Package tier defines the commission tier ordering and the qualification
// policy table. Tiers form a small total order; the policy is static data
// validated once at startup and never mutated at request time.
package tier

import (
	"encoding/json"

	"fleet-admin/internal/errors"
)

// Tier represents a commission tier. The zero value is Tier1.
type Tier int

const (
	Tier1 Tier = iota
	Tier2
	Tier3
)

var tierNames = [...]string{"tier_1", "tier_2", "tier_3"}

// All returns every tier in ascending order
func All() []Tier {
	return []Tier{Tier1, Tier2, Tier3}
}

// String returns the tier name
func (t Tier) String() string {
	if t.Valid() {
		return tierNames[t]
	}
	return "unknown"
}

// Valid reports whether t is a defined tier
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= Tier3
}

// Index returns the zero-based position in the tier order
func (t Tier) Index() int {
	return int(t)
}

// Above reports whether t is a higher tier than other
func (t Tier) Above(other Tier) bool {
	return t > other
}

// MarshalJSON implements json.Marshaler
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse converts a tier name to a Tier
func Parse(s string) (Tier, error) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return Tier(-1), errors.Validation("unknown tier: " + s)
}
