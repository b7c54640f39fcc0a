package unit

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	z "go.dedis.ch/incidents/internal/testing"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/peer/impl"
	"go.dedis.ch/incidents/registry/standard"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
)

var peerFac peer.Factory = impl.NewPeer

// a fake neighbour driven by the test
type fakePeer struct {
	t      *testing.T
	socket transport.ClosableSocket
}

func newFakePeer(t *testing.T, trans transport.Transport) fakePeer {
	socket, err := trans.CreateSocket("127.0.0.1:0")
	require.NoError(t, err)

	return fakePeer{t: t, socket: socket}
}

func (f fakePeer) addr() string {
	return f.socket.GetAddress()
}

func (f fakePeer) send(dest string, msg types.Message, tags transport.Tags) {
	reg := standard.NewRegistry()

	transportMsg, err := reg.MarshalMessage(msg)
	require.NoError(f.t, err)

	header := transport.NewHeader(f.addr(), f.addr(), dest, 0)
	pkt := transport.Packet{
		Header: &header,
		Msg:    &transportMsg,
		Tags:   tags,
	}

	err = f.socket.Send(dest, pkt, time.Second)
	require.NoError(f.t, err)
}

func (f fakePeer) confirm(dest string, reputation, selfishness float64) {
	f.send(dest, types.ConfirmationMessage{Reputation: reputation, Selfishness: selfishness}, nil)
}

// waits for the next packet received by the fake peer
func (f fakePeer) recv() transport.Packet {
	pkt, err := f.socket.Recv(time.Second)
	require.NoError(f.t, err)
	return pkt
}

// absolute mode accepting a single confirmation and decreasing on zero
func testProtocol() peer.ProtocolConfig {
	conf := peer.DefaultProtocol()
	conf.ConfirmationThreshold = 1
	conf.FalseIncidentThreshold = 0
	return conf
}

// waits until the node processed n packets. Packets are recorded before
// being processed, hence the short sleep.
func waitIns(t *testing.T, node z.TestNode, n int) {
	require.Eventually(t, func() bool {
		return len(node.GetIns()) >= n
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
}

// advances the mock clock and gives the fired callbacks some time to run
func advance(c *clock.Mock, d time.Duration) {
	c.Add(d)
	time.Sleep(20 * time.Millisecond)
}
