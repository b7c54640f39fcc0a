package peer

import "fmt"

// Names of the node attributes.
const (
	SelfishProbAttribute      = "SelfishProb"
	ReputationAttribute       = "Reputation"
	ValidIncidentsAttribute   = "ValidIncidents"
	InvalidIncidentsAttribute = "InvalidIncidents"
)

// AttributeStore holds the named numeric attributes of a node.
type AttributeStore interface {
	GetAttribute(name string) (float64, error)
	SetAttribute(name string, value float64) error
}

// ReputationState is the reputation of a node together with the counters it
// is derived from.
type ReputationState struct {
	Valid      float64
	Invalid    float64
	Reputation float64
}

func (r ReputationState) String() string {
	return fmt.Sprintf("{valid=%g invalid=%g reputation=%g}", r.Valid, r.Invalid, r.Reputation)
}

// SuccessionRule is Laplace's rule of succession over the valid and invalid
// counters.
func SuccessionRule(valid, invalid float64) float64 {
	return (valid + 1) / (valid + invalid + 2)
}
