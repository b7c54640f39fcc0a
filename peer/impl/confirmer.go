package impl

import (
	"sync"

	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/types"
)

// confirmer holds the replies the node still has to send and its counters.
type confirmer struct {
	sync.Mutex

	closed  bool
	nextID  uint64
	pending map[uint64]func()

	stats peer.ConfirmerStats
}

func newConfirmer() *confirmer {
	return &confirmer{
		pending: make(map[uint64]func()),
	}
}

// stops every reply that has not been sent yet
func (c *confirmer) close() {
	c.Lock()
	defer c.Unlock()

	c.closed = true
	for id, stop := range c.pending {
		stop()
		delete(c.pending, id)
	}
}

// GetConfirmerStats implements peer.Confirmer
func (n *node) GetConfirmerStats() peer.ConfirmerStats {
	n.confirmer.Lock()
	defer n.confirmer.Unlock()

	return n.confirmer.stats
}

// handles an incident notice received from a neighbour. The node confirms
// with a probability of 1 - selfishness, after a random delay.
func (n *node) onIncidentNotice(from string) {
	c := n.confirmer

	c.Lock()
	defer c.Unlock()

	if c.closed {
		return
	}

	c.stats.NoticesReceived++

	confirm := n.coin.Toss(n.selfishness())

	n.log.Info().Str("event", eventNoticeRcvd).
		Str("from", from).
		Bool("confirm", confirm).
		Msg("incident notice received")

	if !confirm {
		return
	}

	delay := n.coin.Between(n.conf.Protocol.MinConfirmationDelay, n.conf.Protocol.MaxConfirmationDelay)

	c.nextID++
	id := c.nextID

	c.pending[id] = afterFunc(n.clock, delay, func() {
		c.Lock()
		_, ok := c.pending[id]
		delete(c.pending, id)
		c.Unlock()

		if !ok {
			return
		}

		err := n.sendConfirmation(from)
		if err != nil {
			n.log.Err(err).Msgf("failed to confirm the incident of %s", from)
			return
		}

		c.Lock()
		c.stats.ConfirmationsSent++
		c.Unlock()
	})
}

// applies a reputation update received from a reporter
func (n *node) onReputationUpdate(from string, action types.ReputationAction) {
	var changed bool
	var err error

	switch action {
	case types.Increase:
		changed, err = n.reputation.Increase(n.conf.Protocol.ConfirmedIncidentWeight)
	case types.Decrease:
		changed, err = n.reputation.Decrease()
	}

	if err != nil {
		n.log.Err(err).Msgf("failed to apply %s from %s", action, from)
		return
	}

	n.confirmer.Lock()
	n.confirmer.stats.UpdatesApplied++
	n.confirmer.Unlock()

	state := n.GetReputation()

	n.log.Info().Str("event", eventRepUpdate).
		Str("from", from).
		Str("action", action.String()).
		Bool("changed", changed).
		Float64("valid", state.Valid).
		Float64("invalid", state.Invalid).
		Float64("reputation", state.Reputation).
		Msg("reputation updated")
}
