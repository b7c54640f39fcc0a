package impl

import (
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
	"golang.org/x/xerrors"
)

// processes incident notice
func (n *node) ExecIncidentNoticeMessage(msg types.Message, pkt transport.Packet) error {
	_, conv := msg.(*types.IncidentNoticeMessage)
	if !conv {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	n.onIncidentNotice(pkt.Header.Source)

	return nil
}

// processes confirmation message
func (n *node) ExecConfirmationMessage(msg types.Message, pkt transport.Packet) error {
	confirmationMsg, conv := msg.(*types.ConfirmationMessage)
	if !conv {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	n.onConfirmation(pkt.Header.Source, *confirmationMsg)

	return nil
}

// processes reputation update message. The action is read from the packet
// tag.
func (n *node) ExecReputationUpdateMessage(msg types.Message, pkt transport.Packet) error {
	updateMsg, conv := msg.(*types.ReputationUpdateMessage)
	if !conv {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	tag, ok := pkt.RemoveTag(types.ReputationTag)
	if !ok {
		return xerrors.Errorf("reputation update from %s without %q tag",
			pkt.Header.Source, types.ReputationTag)
	}

	action, err := types.DecodeReputationTag(tag)
	if err != nil {
		return xerrors.Errorf("bad reputation update from %s: %v", pkt.Header.Source, err)
	}

	updateMsg.Action = action
	n.onReputationUpdate(pkt.Header.Source, updateMsg.Action)

	return nil
}
