package udp

import (
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"go.dedis.ch/incidents/transport"
	"golang.org/x/xerrors"
)

// largest payload carried by a single UDP datagram
const bufSize = 65000
const network = "udp"

// NewUDP returns a new udp transport implementation.
func NewUDP() transport.Transport {
	return &UDP{}
}

// UDP implements a transport layer using UDP. A packet is marshalled into a
// single datagram, lost datagrams are not retransmitted.
//
// - implements transport.Transport
type UDP struct{}

// CreateSocket implements transport.Transport
func (n *UDP) CreateSocket(address string) (transport.ClosableSocket, error) {
	addr, err := net.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, xerrors.Errorf("failed to resolve %s: %v", address, err)
	}

	conn, err := net.ListenUDP(network, addr)
	if err != nil {
		return nil, xerrors.Errorf("failed to listen on %s: %v", address, err)
	}

	return &Socket{
		conn: conn,
		buf:  make([]byte, bufSize),
	}, nil
}

// Socket implements a network socket using UDP.
//
// - implements transport.ClosableSocket
type Socket struct {
	// guards the read buffer, reads are sequential
	readLock sync.Mutex
	conn     *net.UDPConn
	buf      []byte

	ins  packets
	outs packets
}

// Close implements transport.ClosableSocket
func (s *Socket) Close() error {
	return s.conn.Close()
}

// Send implements transport.Socket
func (s *Socket) Send(dest string, pkt transport.Packet, timeout time.Duration) error {
	addr, err := net.ResolveUDPAddr(network, dest)
	if err != nil {
		return xerrors.Errorf("failed to resolve %s: %v", dest, err)
	}

	msg, err := pkt.Marshal()
	if err != nil {
		return xerrors.Errorf("failed to marshal packet: %v", err)
	}

	if len(msg) > bufSize {
		return xerrors.Errorf("packet too large: %d > %d", len(msg), bufSize)
	}

	err = s.conn.SetWriteDeadline(deadline(timeout))
	if err != nil {
		return xerrors.Errorf("failed to set write deadline: %v", err)
	}

	_, err = s.conn.WriteToUDP(msg, addr)
	if err != nil {
		return convertTimeout(err, timeout)
	}

	s.outs.add(pkt)

	return nil
}

// Recv implements transport.Socket
func (s *Socket) Recv(timeout time.Duration) (transport.Packet, error) {
	s.readLock.Lock()
	defer s.readLock.Unlock()

	pkt := transport.Packet{}

	err := s.conn.SetReadDeadline(deadline(timeout))
	if err != nil {
		return pkt, xerrors.Errorf("failed to set read deadline: %v", err)
	}

	n, _, err := s.conn.ReadFromUDP(s.buf)
	if err != nil {
		return pkt, convertTimeout(err, timeout)
	}

	err = pkt.Unmarshal(s.buf[:n])
	if err != nil {
		return pkt, xerrors.Errorf("failed to unmarshal packet: %v", err)
	}

	s.ins.add(pkt)

	return pkt, nil
}

// GetAddress implements transport.Socket
func (s *Socket) GetAddress() string {
	return s.conn.LocalAddr().String()
}

// GetIns implements transport.Socket
func (s *Socket) GetIns() []transport.Packet {
	return s.ins.getAll()
}

// GetOuts implements transport.Socket
func (s *Socket) GetOuts() []transport.Packet {
	return s.outs.getAll()
}

// zero timeout means no deadline
func deadline(timeout time.Duration) time.Time {
	if timeout == 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

func convertTimeout(err error, timeout time.Duration) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return transport.TimeoutError(timeout)
	}
	return err
}

type packets struct {
	sync.Mutex
	data []transport.Packet
}

func (p *packets) add(pkt transport.Packet) {
	p.Lock()
	defer p.Unlock()

	p.data = append(p.data, pkt.Copy())
}

func (p *packets) getAll() []transport.Packet {
	p.Lock()
	defer p.Unlock()

	res := make([]transport.Packet, len(p.data))
	for i, pkt := range p.data {
		res[i] = pkt.Copy()
	}

	return res
}
