package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	z "go.dedis.ch/incidents/internal/testing"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/peer/impl"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/transport/channel"
	"go.dedis.ch/incidents/validation"
)

var peerFac peer.Factory = impl.NewPeer

func fastProtocol() peer.ProtocolConfig {
	conf := peer.DefaultProtocol()
	conf.StartOffset = 50 * time.Millisecond
	conf.TimerDelay = 300 * time.Millisecond
	conf.MinConfirmationDelay = 10 * time.Millisecond
	conf.MaxConfirmationDelay = 100 * time.Millisecond
	conf.ConfirmationThreshold = 2
	conf.FalseIncidentThreshold = 0
	return conf
}

// creates fully connected nodes with the given profiles
func newCluster(t *testing.T, trans transport.Transport, profiles []peer.Profile,
	opts ...z.Option) []z.TestNode {

	nodes := make([]z.TestNode, len(profiles))
	for i, profile := range profiles {
		nodeOpts := append([]z.Option{
			z.WithProtocol(fastProtocol()),
			z.WithProfile(profile),
			z.WithSeed(int64(i + 1)),
		}, opts...)
		nodes[i] = z.NewTestNode(t, peerFac, trans, "127.0.0.1:0", nodeOpts...)
	}

	for _, n := range nodes {
		for _, other := range nodes {
			n.AddPeer(other.GetAddress())
		}
	}

	return nodes
}

func stopAll(nodes []z.TestNode) {
	for _, n := range nodes {
		n.Stop()
	}
}

// Altruistic neighbours confirm the incident, the reporter and its
// confirmers gain reputation.
func Test_Integration_Altruistic_Cluster(t *testing.T) {
	transp := channel.NewTransport()

	profiles := make([]peer.Profile, 4)
	for i := range profiles {
		profiles[i] = peer.Profile{ID: i, SelfishProbability: peer.Altruistic}
	}

	nodes := newCluster(t, transp, profiles)
	defer stopAll(nodes)

	decision, err := nodes[0].GenerateIncidentAndWait(0, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, validation.IncreaseReputation, decision)

	require.Equal(t, 1.0, nodes[0].GetReputation().Valid)

	// every neighbour confirmed and gets its increase
	for _, n := range nodes[1:] {
		n := n
		require.Eventually(t, func() bool {
			return n.GetReputation().Valid == 1
		}, time.Second, 10*time.Millisecond)
		require.Equal(t, uint(1), n.GetConfirmerStats().ConfirmationsSent)
	}

	stats := nodes[0].GetReporterStats()
	require.Equal(t, uint(1), stats.Generated)
	require.Equal(t, uint(4), stats.Sent)
}

// Selfish neighbours never confirm, the reporter is penalised.
func Test_Integration_Selfish_Cluster(t *testing.T) {
	transp := channel.NewTransport()

	profiles := []peer.Profile{
		{ID: 0, SelfishProbability: peer.Altruistic},
		{ID: 1, SelfishProbability: peer.Selfish},
		{ID: 2, SelfishProbability: peer.Selfish},
	}

	nodes := newCluster(t, transp, profiles)
	defer stopAll(nodes)

	decision, err := nodes[0].GenerateIncidentAndWait(0, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, validation.DecreaseReputation, decision)

	state := nodes[0].GetReputation()
	require.Equal(t, 1.0, state.Invalid)

	for _, n := range nodes[1:] {
		require.Equal(t, peer.ReputationState{Reputation: 0.5}, n.GetReputation())
	}
}

// Malicious nodes back each other: a malicious reporter keeps the
// confirmations of malicious nodes only and rewards them.
func Test_Integration_Malicious_Collusion(t *testing.T) {
	transp := channel.NewTransport()

	profiles := []peer.Profile{
		{ID: 0, SelfishProbability: peer.Malicious},
		{ID: 1, SelfishProbability: peer.Malicious},
		{ID: 2, SelfishProbability: peer.Malicious},
		{ID: 3, SelfishProbability: peer.Altruistic},
	}

	nodes := newCluster(t, transp, profiles)
	defer stopAll(nodes)

	decision, err := nodes[0].GenerateIncidentAndWait(0, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, validation.IncreaseReputation, decision)

	for _, n := range nodes[1:3] {
		n := n
		require.Eventually(t, func() bool {
			return n.GetReputation().Valid == 1
		}, time.Second, 10*time.Millisecond)
	}

	// the altruistic node confirmed but was ignored
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 0.0, nodes[3].GetReputation().Valid)
}

// With periodic generation the node keeps reporting incidents, one round at
// a time.
func Test_Integration_Periodic_Generation(t *testing.T) {
	transp := channel.NewTransport()

	profiles := []peer.Profile{
		{ID: 0, SelfishProbability: peer.Altruistic},
		{ID: 1, SelfishProbability: peer.Altruistic},
		{ID: 2, SelfishProbability: peer.Altruistic},
	}

	nodes := newCluster(t, transp, profiles[1:])
	defer stopAll(nodes)

	reporter := z.NewTestNode(t, peerFac, transp, "127.0.0.1:0",
		z.WithProtocol(fastProtocol()),
		z.WithProfile(profiles[0]),
		z.WithIncidentInterval(400*time.Millisecond))
	defer reporter.Stop()

	for _, n := range nodes {
		reporter.AddPeer(n.GetAddress())
		n.AddPeer(reporter.GetAddress())
	}

	require.Eventually(t, func() bool {
		return reporter.GetReporterStats().Increases >= 3
	}, 5*time.Second, 20*time.Millisecond)

	stats := reporter.GetReporterStats()
	require.LessOrEqual(t, stats.Increases+stats.Decreases+stats.IdleRounds, stats.Generated)
}

// Packets may be lost. Rounds still terminate.
func Test_Integration_Lossy_Network(t *testing.T) {
	transp := channel.NewTransport(channel.WithDropRate(0.5, 1))

	profiles := make([]peer.Profile, 5)
	for i := range profiles {
		profiles[i] = peer.Profile{ID: i, SelfishProbability: peer.Altruistic}
	}

	nodes := newCluster(t, transp, profiles)
	defer stopAll(nodes)

	for i := 0; i < 3; i++ {
		_, err := nodes[0].GenerateIncidentAndWait(0, 5*time.Second)
		require.NoError(t, err)
	}

	stats := nodes[0].GetReporterStats()
	require.Equal(t, uint(3), stats.Generated)
	require.Equal(t, uint(3), stats.Increases+stats.Decreases+stats.IdleRounds)
}
