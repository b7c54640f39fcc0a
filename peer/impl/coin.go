package impl

import (
	"math/rand"
	"sync"
	"time"
)

// coin is the random source of a node. It is safe for concurrent use.
type coin struct {
	sync.Mutex
	rand *rand.Rand
}

func newCoin(seed int64) *coin {
	return &coin{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Toss draws u in [0, 1) and returns true if u >= bias. A bias <= 0 always
// succeeds, a bias >= 1 never does.
func (c *coin) Toss(bias float64) bool {
	c.Lock()
	defer c.Unlock()

	return c.rand.Float64() >= bias
}

// Between returns a uniform duration in [min, max].
func (c *coin) Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}

	c.Lock()
	defer c.Unlock()

	return min + time.Duration(c.rand.Int63n(int64(max-min)+1))
}
