package impl

import (
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
	"golang.org/x/xerrors"
)

// sends the incident notice to every neighbour. Returns the number of
// neighbours the notice was sent to.
func (n *node) broadcastNotice() int {
	notice := types.IncidentNoticeMessage{
		Filler: make([]byte, n.conf.Protocol.NoticeSize),
	}

	sent := 0
	for _, neighbour := range n.routingTable.getNeighbours() {
		err := n.unicast(neighbour, notice, nil)
		if err != nil {
			n.log.Err(err).Msgf("failed to send notice to %s", neighbour)
			continue
		}
		sent++
	}

	return sent
}

// sends a confirmation carrying the node's reputation and selfishness as
// they are at send time
func (n *node) sendConfirmation(dest string) error {
	state, err := n.reputation.State()
	if err != nil {
		return xerrors.Errorf("failed to read reputation: %v", err)
	}

	msg := types.ConfirmationMessage{
		Reputation:  state.Reputation,
		Selfishness: n.selfishness(),
	}

	err = n.unicast(dest, msg, nil)
	if err != nil {
		return xerrors.Errorf("failed to send confirmation: %v", err)
	}

	n.log.Info().Str("event", eventConfSent).
		Str("to", dest).
		Float64("reputation", msg.Reputation).
		Float64("selfishness", msg.Selfishness).
		Msg("confirmation sent")

	return nil
}

// sends a reputation update to each peer, in the given order
func (n *node) sendReputationUpdates(peers []string, action types.ReputationAction) int {
	tags := transport.Tags{types.ReputationTag: action.EncodeTag()}

	sent := 0
	for _, dest := range peers {
		err := n.unicast(dest, types.ReputationUpdateMessage{}, tags)
		if err != nil {
			n.log.Err(err).Msgf("failed to send %s to %s", action, dest)
			continue
		}
		sent++
	}

	return sent
}

// sends a message directly to dest
func (n *node) unicast(dest string, msg types.Message, tags transport.Tags) error {
	myAddr := n.soc.GetAddress()

	header := transport.NewHeader(myAddr, myAddr, dest, 0)
	pkt, err := n.createPkt(&header, msg)
	if err != nil {
		return err
	}

	for name, value := range tags {
		pkt.AddTag(name, value)
	}

	err = n.soc.Send(dest, pkt, 0)
	if err != nil {
		return xerrors.Errorf("failed to send packet to %s: %v", dest, err)
	}

	return nil
}

// returns a transport packet from header and message
func (n *node) createPkt(header *transport.Header, msg types.Message) (transport.Packet, error) {
	// transforms the message so that it is ready to be sent
	transportMsg, err := n.reg.MarshalMessage(msg)
	if err != nil {
		return transport.Packet{}, xerrors.Errorf("failed to marshal message: %v", err)
	}

	// create transport packet
	pkt := transport.Packet{
		Header: header,
		Msg:    &transportMsg,
	}

	return pkt, nil
}
