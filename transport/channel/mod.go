package channel

import (
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"

	"go.dedis.ch/incidents/transport"
	"golang.org/x/xerrors"
)

// capacity of a socket's inbox
const inboxSize = 10000

// Option configures the in-memory transport.
type Option func(*Transport)

// WithDropRate makes the transport silently drop each sent packet with the
// given probability.
func WithDropRate(rate float64, seed int64) Option {
	return func(t *Transport) {
		t.dropRate = rate
		t.rnd = rand.New(rand.NewSource(seed))
	}
}

// NewTransport returns a new in-memory transport.
func NewTransport(opts ...Option) transport.Transport {
	t := &Transport{
		inboxes:  make(map[string]chan transport.Packet),
		nextPort: 1,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Transport delivers packets through channels. It is used in tests and in the
// simulation harness, where every node lives in the same process.
//
// - implements transport.Transport
type Transport struct {
	sync.Mutex
	inboxes  map[string]chan transport.Packet
	nextPort int

	dropRate float64
	rnd      *rand.Rand
}

// CreateSocket implements transport.Transport. A zero port is replaced by a
// unique one.
func (t *Transport) CreateSocket(address string) (transport.ClosableSocket, error) {
	t.Lock()
	defer t.Unlock()

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, xerrors.Errorf("invalid address %s: %v", address, err)
	}

	if port == "0" {
		for {
			candidate := net.JoinHostPort(host, strconv.Itoa(t.nextPort))
			t.nextPort++
			if _, used := t.inboxes[candidate]; !used {
				address = candidate
				break
			}
		}
	}

	if _, used := t.inboxes[address]; used {
		return nil, xerrors.Errorf("address already in use: %s", address)
	}

	inbox := make(chan transport.Packet, inboxSize)
	t.inboxes[address] = inbox

	return &Socket{
		transport: t,
		address:   address,
		inbox:     inbox,
	}, nil
}

func (t *Transport) lookup(address string) (chan transport.Packet, bool) {
	t.Lock()
	defer t.Unlock()

	inbox, ok := t.inboxes[address]
	return inbox, ok
}

func (t *Transport) remove(address string) {
	t.Lock()
	defer t.Unlock()

	delete(t.inboxes, address)
}

func (t *Transport) drop() bool {
	t.Lock()
	defer t.Unlock()

	if t.rnd == nil || t.dropRate <= 0 {
		return false
	}
	return t.rnd.Float64() < t.dropRate
}

// Socket is an in-memory socket.
//
// - implements transport.ClosableSocket
type Socket struct {
	transport *Transport
	address   string
	inbox     chan transport.Packet

	closeOnce sync.Once

	insLock sync.Mutex
	ins     []transport.Packet

	outsLock sync.Mutex
	outs     []transport.Packet
}

// Close implements transport.ClosableSocket. The inbox is not closed so that
// late senders never panic, they simply reach nobody.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.transport.remove(s.address)
	})
	return nil
}

// Send implements transport.Socket
func (s *Socket) Send(dest string, pkt transport.Packet, timeout time.Duration) error {
	inbox, ok := s.transport.lookup(dest)
	if !ok {
		return xerrors.Errorf("address not found: %s", dest)
	}

	s.outsLock.Lock()
	s.outs = append(s.outs, pkt.Copy())
	s.outsLock.Unlock()

	if s.transport.drop() {
		return nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case inbox <- pkt.Copy():
		return nil
	case <-expired:
		return transport.TimeoutError(timeout)
	}
}

// Recv implements transport.Socket
func (s *Socket) Recv(timeout time.Duration) (transport.Packet, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case pkt := <-s.inbox:
		s.insLock.Lock()
		s.ins = append(s.ins, pkt.Copy())
		s.insLock.Unlock()
		return pkt, nil
	case <-expired:
		return transport.Packet{}, transport.TimeoutError(timeout)
	}
}

// GetAddress implements transport.Socket
func (s *Socket) GetAddress() string {
	return s.address
}

// GetIns implements transport.Socket
func (s *Socket) GetIns() []transport.Packet {
	s.insLock.Lock()
	defer s.insLock.Unlock()

	return copyPackets(s.ins)
}

// GetOuts implements transport.Socket
func (s *Socket) GetOuts() []transport.Packet {
	s.outsLock.Lock()
	defer s.outsLock.Unlock()

	return copyPackets(s.outs)
}

func (s *Socket) String() string {
	return fmt.Sprintf("channel socket %s", s.address)
}

func copyPackets(pkts []transport.Packet) []transport.Packet {
	res := make([]transport.Packet, len(pkts))
	for i, pkt := range pkts {
		res[i] = pkt.Copy()
	}
	return res
}
