package standard

import (
	"encoding"
	"encoding/json"
	"sync"

	"go.dedis.ch/incidents/registry"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
	"golang.org/x/xerrors"
)

// NewRegistry returns a new initialized registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:  make(map[string]registry.Exec),
		templates: make(map[string]types.Message),
	}
}

// Registry dispatches packets to the callback registered for their message
// type. Payloads are encoded with the message's binary marshaller when it
// has one, in JSON otherwise.
//
// - implements registry.Registry
type Registry struct {
	sync.Mutex

	handlers  map[string]registry.Exec
	templates map[string]types.Message
}

// RegisterMessageCallback implements registry.Registry
func (r *Registry) RegisterMessageCallback(m types.Message, exec registry.Exec) {
	r.Lock()
	defer r.Unlock()

	r.handlers[m.Name()] = exec
	r.templates[m.Name()] = m
}

// ProcessPacket implements registry.Registry
func (r *Registry) ProcessPacket(pkt transport.Packet) error {
	if pkt.Msg == nil {
		return xerrors.Errorf("packet without message: %s", pkt)
	}

	r.Lock()
	exec, ok := r.handlers[pkt.Msg.Type]
	template := r.templates[pkt.Msg.Type]
	r.Unlock()

	if !ok {
		return xerrors.Errorf("no callback registered for %q", pkt.Msg.Type)
	}

	msg := template.NewEmpty()

	err := r.UnmarshalMessage(pkt.Msg, msg)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal %s: %v", pkt.Msg.Type, err)
	}

	err = exec(msg, pkt)
	if err != nil {
		return xerrors.Errorf("failed to process %s: %v", pkt.Msg.Type, err)
	}

	return nil
}

// MarshalMessage implements registry.Registry
func (r *Registry) MarshalMessage(msg types.Message) (transport.Message, error) {
	var payload []byte
	var err error

	marshaler, ok := msg.(encoding.BinaryMarshaler)
	if ok {
		payload, err = marshaler.MarshalBinary()
	} else {
		payload, err = json.Marshal(msg)
	}

	if err != nil {
		return transport.Message{}, xerrors.Errorf("failed to marshal %s: %v", msg.Name(), err)
	}

	return transport.Message{
		Type:    msg.Name(),
		Payload: payload,
	}, nil
}

// UnmarshalMessage implements registry.Registry
func (r *Registry) UnmarshalMessage(tm *transport.Message, msg types.Message) error {
	unmarshaler, ok := msg.(encoding.BinaryUnmarshaler)
	if ok {
		return unmarshaler.UnmarshalBinary(tm.Payload)
	}

	err := json.Unmarshal(tm.Payload, msg)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal payload: %v", err)
	}

	return nil
}
