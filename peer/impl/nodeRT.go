package impl

import (
	"sync"

	"go.dedis.ch/incidents/datastructures"
)

// initialises node neighbour table
func newNodeRT(self string) *nodeRT {
	return &nodeRT{
		self:       self,
		known:      datastructures.EmptySet[string](),
		neighbours: []string{},
	}
}

// nodeRT keeps the neighbours of the node in the order they were added.
type nodeRT struct {
	sync.RWMutex
	self       string
	known      datastructures.Set[string]
	neighbours []string
}

// adds new known addresses to the neighbours if different from node address
func (nRT *nodeRT) addEntries(addr []string) {
	nRT.Lock()
	defer nRT.Unlock()

	for _, k := range addr {
		if k == nRT.self || nRT.known.Contains(k) {
			continue
		}
		nRT.known.Add(k)
		nRT.neighbours = append(nRT.neighbours, k)
	}
}

// returns true if addr is a neighbour
func (nRT *nodeRT) isNeighbour(addr string) bool {
	nRT.RLock()
	defer nRT.RUnlock()

	return nRT.known.Contains(addr)
}

// returns a copy of the node's neighbours
func (nRT *nodeRT) getNeighbours() []string {
	nRT.RLock()
	defer nRT.RUnlock()

	copyN := make([]string, len(nRT.neighbours))
	copy(copyN, nRT.neighbours)

	return copyN
}
