package validation

import "go.dedis.ch/incidents/datastructures"

// Confirmation is a confirmation accepted by a reporter.
type Confirmation struct {
	Peer        string
	Reputation  float64
	Selfishness float64
}

// Round holds what a reporter collected while its confirmation window is
// open. A round is consumed by the validator when the window closes.
type Round struct {
	ID string

	// accepted confirmations, in arrival order
	Confirmations []Confirmation
	// every peer that replied, whether its confirmation was accepted or not
	Neighbours datastructures.Set[string]
	// reported reputation per confirmer. The first report of a peer wins.
	Reputations map[string]float64

	HighReputationConfirmer bool
}

// NewRound returns an empty round.
func NewRound(id string) *Round {
	return &Round{
		ID:            id,
		Confirmations: make([]Confirmation, 0),
		Neighbours:    datastructures.EmptySet[string](),
		Reputations:   make(map[string]float64),
	}
}

// SawNeighbour records that the peer replied during the round.
func (r *Round) SawNeighbour(peer string) {
	r.Neighbours.Add(peer)
}

// Accept counts the confirmation. A reported reputation at or above the
// threshold flags the round as confirmed by a high reputation peer.
func (r *Round) Accept(c Confirmation, reputationThreshold float64) {
	r.Confirmations = append(r.Confirmations, c)

	if c.Reputation >= reputationThreshold {
		r.HighReputationConfirmer = true
	}

	if _, known := r.Reputations[c.Peer]; !known {
		r.Reputations[c.Peer] = c.Reputation
	}
}

// Confirmers returns the peers of the accepted confirmations, most recent
// first. A peer that confirmed twice appears twice.
func (r *Round) Confirmers() []string {
	peers := datastructures.Map(r.Confirmations, func(c Confirmation) string {
		return c.Peer
	})
	return datastructures.Reverse(peers)
}
