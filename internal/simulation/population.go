package simulation

import (
	"math"
	"math/rand"

	"go.dedis.ch/incidents/internal/params"
	"go.dedis.ch/incidents/peer"
)

// bounds of the selfish probability of a random node
const (
	minRandomSelfishness = 0.2
	maxRandomSelfishness = 0.8
)

// Groups gives the number of nodes of each behaviour.
type Groups struct {
	Selfish    int
	Altruistic int
	Malicious  int
	Random     int
}

// Total returns the size of the population.
func (g Groups) Total() int {
	return g.Selfish + g.Altruistic + g.Malicious + g.Random
}

// NewGroups splits the nodes between the behaviours. The fractions are
// truncated and the remaining nodes are random.
func NewGroups(p params.Parameters) Groups {
	g := Groups{
		Selfish:    int(float64(p.NodeNum) * p.SelfishNodes),
		Altruistic: int(float64(p.NodeNum) * p.AltruisticNodes),
		Malicious:  int(float64(p.NodeNum) * p.MaliciousNodes),
	}

	g.Random = p.NodeNum - g.Selfish - g.Altruistic - g.Malicious
	if g.Random < 0 {
		g.Random = 0
	}

	return g
}

// NewPopulation returns the profiles of the nodes of a simulation: first the
// selfish nodes, then the altruistic, malicious and random ones. A fraction of
// the altruistic nodes is trusted, the trusted nodes are drawn with
// replacement.
func NewPopulation(p params.Parameters, rng *rand.Rand) []peer.Profile {
	groups := NewGroups(p)
	profiles := make([]peer.Profile, 0, groups.Total())

	add := func(n int, selfishness func() float64) {
		for i := 0; i < n; i++ {
			profiles = append(profiles, peer.Profile{
				ID:                 len(profiles),
				SelfishProbability: selfishness(),
				InitialValid:       p.InitialValidIncidents,
				InitialInvalid:     p.InitialInvalidIncidents,
			})
		}
	}

	constant := func(v float64) func() float64 {
		return func() float64 { return v }
	}

	add(groups.Selfish, constant(peer.Selfish))

	firstAltruistic := len(profiles)
	add(groups.Altruistic, constant(peer.Altruistic))

	add(groups.Malicious, constant(peer.Malicious))
	add(groups.Random, func() float64 {
		return minRandomSelfishness + rng.Float64()*(maxRandomSelfishness-minRandomSelfishness)
	})

	trusted := int(math.Round(float64(groups.Altruistic) * p.TrustedNodes))
	for i := 0; i < trusted; i++ {
		profiles[firstAltruistic+rng.Intn(groups.Altruistic)].Trusted = true
	}

	return profiles
}

// Link is an undirected link between two nodes.
type Link struct {
	A, B int
}

// NewTopology chains the nodes so that the graph is connected, then adds a
// link between any two other nodes with the given probability.
func NewTopology(n int, probability float64, rng *rand.Rand) []Link {
	links := make([]Link, 0, n)

	for i := 1; i < n; i++ {
		links = append(links, Link{A: i - 1, B: i})
	}

	if probability <= 0 {
		return links
	}

	for i := 0; i < n-1; i++ {
		for j := i + 2; j < n; j++ {
			if rng.Float64() < probability {
				links = append(links, Link{A: i, B: j})
			}
		}
	}

	return links
}
