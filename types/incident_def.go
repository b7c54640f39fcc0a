package types

import "fmt"

// -----------------------------------------------------------------------------
// IncidentNoticeMessage

// NewEmpty implements types.Message.
func (m IncidentNoticeMessage) NewEmpty() Message {
	return &IncidentNoticeMessage{}
}

// Name implements types.Message.
func (m IncidentNoticeMessage) Name() string {
	return "incidentnotice"
}

// String implements types.Message.
func (m IncidentNoticeMessage) String() string {
	return fmt.Sprintf("incidentnotice{%d bytes}", len(m.Filler))
}

// HTML implements types.Message.
func (m IncidentNoticeMessage) HTML() string {
	return m.String()
}

// -----------------------------------------------------------------------------
// ConfirmationMessage

// NewEmpty implements types.Message.
func (m ConfirmationMessage) NewEmpty() Message {
	return &ConfirmationMessage{}
}

// Name implements types.Message.
func (m ConfirmationMessage) Name() string {
	return "confirmation"
}

// String implements types.Message.
func (m ConfirmationMessage) String() string {
	return fmt.Sprintf("confirmation{reputation=%v, selfishness=%v}", m.Reputation, m.Selfishness)
}

// HTML implements types.Message.
func (m ConfirmationMessage) HTML() string {
	return fmt.Sprintf("confirmation (r=%v, s=%v)", m.Reputation, m.Selfishness)
}

// -----------------------------------------------------------------------------
// ReputationUpdateMessage

// NewEmpty implements types.Message.
func (m ReputationUpdateMessage) NewEmpty() Message {
	return &ReputationUpdateMessage{}
}

// Name implements types.Message.
func (m ReputationUpdateMessage) Name() string {
	return "reputationupdate"
}

// String implements types.Message.
func (m ReputationUpdateMessage) String() string {
	return fmt.Sprintf("reputationupdate{action=%s}", m.Action)
}

// HTML implements types.Message.
func (m ReputationUpdateMessage) HTML() string {
	return m.String()
}
