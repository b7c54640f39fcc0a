package registry

import (
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
)

// Registry defines a registry to process messages and transform them to be used
// on the network. Processed messages are handed to their callback and not
// kept.
type Registry interface {
	// RegisterMessageCallback registers a function that will be executed for
	// that particular type of message by the ProcessPacket function.
	RegisterMessageCallback(types.Message, Exec)

	// ProcessPacket executes the registered callback based on the pkt.Message.
	ProcessPacket(pkt transport.Packet) error

	// MarshalMessage transforms the message to a transport.Message.
	MarshalMessage(types.Message) (transport.Message, error)

	// UnmarshalMessage transforms a transport.Message to its corresponding
	// types.Message. The message MUST be a pointer.
	UnmarshalMessage(*transport.Message, types.Message) error
}

// Exec is the type of function executed as a handler on a message.
type Exec func(types.Message, transport.Packet) error
