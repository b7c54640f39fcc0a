package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
)

// Transport creates sockets bound to an address.
type Transport interface {
	CreateSocket(address string) (ClosableSocket, error)
}

// Socket is the network abstraction used by a node. A packet sent with Send
// is delivered at most once, it might be dropped by the underlying medium.
type Socket interface {
	// Send sends a packet to the destination. A timeout of 0 means no
	// timeout.
	Send(dest string, pkt Packet, timeout time.Duration) error

	// Recv blocks until a packet is received or the timeout is reached. A
	// timeout of 0 means no timeout. It returns a TimeoutError on timeout.
	Recv(timeout time.Duration) (Packet, error)

	// GetAddress returns the address assigned to the socket.
	GetAddress() string

	// GetIns returns all the packets received so far.
	GetIns() []Packet

	// GetOuts returns all the packets sent so far.
	GetOuts() []Packet
}

// ClosableSocket is a socket that can be closed.
type ClosableSocket interface {
	Socket
	Close() error
}

// TimeoutError is returned when a socket operation times out.
type TimeoutError time.Duration

// Error implements error.
func (err TimeoutError) Error() string {
	return fmt.Sprintf("timeout reached after %d", err)
}

// Is implements errors.Is. Any TimeoutError matches, whatever its duration.
func (TimeoutError) Is(err error) bool {
	_, ok := err.(TimeoutError)
	return ok
}

// Packet is the unit exchanged between sockets. Tags travel next to the
// message without being part of its payload.
type Packet struct {
	Header *Header
	Msg    *Message
	Tags   Tags `json:",omitempty"`
}

// Marshal transforms the packet so that it can be sent over the network.
func (p Packet) Marshal() ([]byte, error) {
	return json.Marshal(&p)
}

// Unmarshal fills the packet from its network representation.
func (p *Packet) Unmarshal(buf []byte) error {
	return json.Unmarshal(buf, p)
}

// Copy returns a deep copy of the packet.
func (p Packet) Copy() Packet {
	res := Packet{}

	if p.Header != nil {
		h := p.Header.Copy()
		res.Header = &h
	}

	if p.Msg != nil {
		m := p.Msg.Copy()
		res.Msg = &m
	}

	res.Tags = p.Tags.Copy()

	return res
}

func (p Packet) String() string {
	return fmt.Sprintf("{%s - %s - tags=%d}", p.Header, p.Msg, len(p.Tags))
}

// AddTag attaches an out-of-band tag to the packet, replacing any previous
// tag with the same name.
func (p *Packet) AddTag(name string, value []byte) {
	if p.Tags == nil {
		p.Tags = make(Tags)
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	p.Tags[name] = buf
}

// RemoveTag detaches and returns the tag with the given name.
func (p *Packet) RemoveTag(name string) ([]byte, bool) {
	value, ok := p.Tags[name]
	if ok {
		delete(p.Tags, name)
	}
	return value, ok
}

// Tags are named byte values attached to a packet.
type Tags map[string][]byte

// Copy returns a deep copy of the tags.
func (t Tags) Copy() Tags {
	if t == nil {
		return nil
	}

	res := make(Tags, len(t))
	for name, value := range t {
		buf := make([]byte, len(value))
		copy(buf, value)
		res[name] = buf
	}
	return res
}

// NewHeader returns a new header with a fresh packet ID.
func NewHeader(source, relay, dest string, ttl uint) Header {
	return Header{
		PacketID:    xid.New().String(),
		Timestamp:   time.Now().UnixNano(),
		Source:      source,
		RelayedBy:   relay,
		Destination: dest,
		TTL:         ttl,
	}
}

// Header contains the routing information of a packet.
type Header struct {
	PacketID    string
	Timestamp   int64
	Source      string
	RelayedBy   string
	Destination string
	TTL         uint
}

// Copy returns a copy of the header.
func (h Header) Copy() Header {
	return h
}

func (h *Header) String() string {
	if h == nil {
		return "<nil header>"
	}
	return fmt.Sprintf("%s: %s -> %s (relay %s)", h.PacketID, h.Source, h.Destination, h.RelayedBy)
}

// Message is a typed payload. The payload encoding is defined by the message
// type, see the registry.
type Message struct {
	Type    string
	Payload []byte
}

// Copy returns a deep copy of the message.
func (m Message) Copy() Message {
	payload := make([]byte, len(m.Payload))
	copy(payload, m.Payload)

	return Message{
		Type:    m.Type,
		Payload: payload,
	}
}

func (m *Message) String() string {
	if m == nil {
		return "<nil message>"
	}
	return fmt.Sprintf("%s (%d bytes)", m.Type, len(m.Payload))
}
