package peer

import "fmt"

const (
	// Malicious nodes confirm every notice and only trust other malicious
	// nodes.
	Malicious = -1.0
	// Altruistic nodes confirm every notice.
	Altruistic = 0.0
	// Selfish nodes never confirm.
	Selfish = 1.0
)

// Profile describes how a node behaves.
type Profile struct {
	ID int

	// SelfishProbability is in [-1, 1]. A node confirms a notice when a draw
	// in [0, 1) is at least its selfish probability.
	SelfishProbability float64

	// Trusted nodes have a reputation pinned to 1.
	Trusted bool

	// Initial counters of the node's reputation.
	InitialValid   float64
	InitialInvalid float64
}

// IsMalicious returns true if the profile is the malicious one.
func (p Profile) IsMalicious() bool {
	return p.SelfishProbability == Malicious
}

// Kind returns a human readable name of the behaviour.
func (p Profile) Kind() string {
	switch {
	case p.IsMalicious():
		return "malicious"
	case p.SelfishProbability == Altruistic:
		return "altruistic"
	case p.SelfishProbability == Selfish:
		return "selfish"
	default:
		return "random"
	}
}

func (p Profile) String() string {
	return fmt.Sprintf("{%d %s selfish=%g trusted=%t}", p.ID, p.Kind(), p.SelfishProbability, p.Trusted)
}
