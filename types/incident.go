package types

import (
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// NoticeSize is the default size of the incident notice filler.
const NoticeSize = 512

// ConfirmationSep separates the fields of a confirmation payload.
const ConfirmationSep = "#"

// ReputationTag is the name of the packet tag carrying a reputation update
// action.
const ReputationTag = "reputation"

// ErrMalformedConfirmation is returned when a confirmation payload cannot be
// decoded.
var ErrMalformedConfirmation = xerrors.New("malformed confirmation")

// IncidentNoticeMessage is broadcast by a reporter when it observes an
// incident. It has no semantic field, its payload is an opaque filler.
type IncidentNoticeMessage struct {
	Filler []byte
}

// MarshalBinary implements encoding.BinaryMarshaler
func (m IncidentNoticeMessage) MarshalBinary() ([]byte, error) {
	buf := make([]byte, len(m.Filler))
	copy(buf, m.Filler)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (m *IncidentNoticeMessage) UnmarshalBinary(data []byte) error {
	m.Filler = make([]byte, len(data))
	copy(m.Filler, data)
	return nil
}

// ConfirmationMessage is the reply of a confirmer to an incident notice. It
// carries the confirmer's reputation and selfishness, encoded as
// "<reputation>#<selfishness>#".
type ConfirmationMessage struct {
	Reputation  float64
	Selfishness float64
}

// MarshalBinary implements encoding.BinaryMarshaler
func (m ConfirmationMessage) MarshalBinary() ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(strconv.FormatFloat(m.Reputation, 'g', -1, 64))
	sb.WriteString(ConfirmationSep)
	sb.WriteString(strconv.FormatFloat(m.Selfishness, 'g', -1, 64))
	sb.WriteString(ConfirmationSep)

	return []byte(sb.String()), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Fields after the
// second one are ignored.
func (m *ConfirmationMessage) UnmarshalBinary(data []byte) error {
	fields := strings.Split(string(data), ConfirmationSep)
	if len(fields) < 2 {
		return xerrors.Errorf("expected 2 fields in %q: %w", data, ErrMalformedConfirmation)
	}

	reputation, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return xerrors.Errorf("bad reputation %q (%v): %w", fields[0], err, ErrMalformedConfirmation)
	}

	selfishness, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return xerrors.Errorf("bad selfishness %q (%v): %w", fields[1], err, ErrMalformedConfirmation)
	}

	m.Reputation = reputation
	m.Selfishness = selfishness

	return nil
}

// ReputationAction is the action requested by a reputation update.
type ReputationAction uint8

const (
	// Increase asks the confirmer to count a valid incident.
	Increase ReputationAction = 0
	// Decrease asks the confirmer to count an invalid incident.
	Decrease ReputationAction = 1
)

func (a ReputationAction) String() string {
	switch a {
	case Increase:
		return "INCREASE_REP"
	case Decrease:
		return "DECREASE_REP"
	default:
		return "UNKNOWN_REP(" + strconv.Itoa(int(a)) + ")"
	}
}

// EncodeTag returns the single byte tag value of the action.
func (a ReputationAction) EncodeTag() []byte {
	return []byte{byte(a)}
}

// DecodeReputationTag parses a reputation tag value.
func DecodeReputationTag(tag []byte) (ReputationAction, error) {
	if len(tag) != 1 {
		return 0, xerrors.Errorf("invalid reputation tag size: %d", len(tag))
	}

	action := ReputationAction(tag[0])
	if action != Increase && action != Decrease {
		return 0, xerrors.Errorf("unknown reputation action: %d", tag[0])
	}

	return action, nil
}

// ReputationUpdateMessage is sent by a reporter to each of its confirmers
// once the incident is validated. Its body is empty, the action travels in
// the ReputationTag packet tag and is filled in on reception.
type ReputationUpdateMessage struct {
	Action ReputationAction
}

// MarshalBinary implements encoding.BinaryMarshaler
func (m ReputationUpdateMessage) MarshalBinary() ([]byte, error) {
	return []byte{}, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (m *ReputationUpdateMessage) UnmarshalBinary(data []byte) error {
	return nil
}
