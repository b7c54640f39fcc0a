package impl

import (
	"errors"

	"go.dedis.ch/incidents/peer"
)

// implements periodic incident generation
func (n *node) incidentMechanism() {
	defer n.wg.Done()

	// the first incident is generated after the start offset
	start := n.clock.Timer(n.conf.Protocol.StartOffset)
	select {
	case <-start.C:
	case <-n.stopChannel:
		start.Stop()
		return
	}

	n.generatePeriodicIncident()

	// create ticker with given interval
	ticker := n.clock.Ticker(n.conf.IncidentInterval)
	defer ticker.Stop()

	for {
		select {
		// if ticker is triggered, generate an incident
		case <-ticker.C:
			n.generatePeriodicIncident()
		// if stop function is called, stop mechanism
		case <-n.stopChannel:
			return
		}
	}
}

// generates an incident, unless the previous one is still pending
func (n *node) generatePeriodicIncident() {
	_, err := n.GenerateIncident(0)
	if errors.Is(err, peer.ErrIncidentPending) {
		n.log.Debug().Msg("previous incident pending, skipping")
	} else if err != nil {
		n.log.Err(err).Msg("failed to generate incident")
	}
}
