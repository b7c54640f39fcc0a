package testing

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/incidents/datastructures"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/registry"
	"go.dedis.ch/incidents/registry/standard"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
)

// Option is the type of option when creating a test node.
type Option func(*configTemplate)

type configTemplate struct {
	clock      clock.Clock
	profile    peer.Profile
	protocol   peer.ProtocolConfig
	seed       int64
	interval   time.Duration
	attributes peer.AttributeStore
	onChange   func(addr string, before, after peer.ReputationState)
	autoStart  bool

	messages []types.Message
	handlers []registry.Exec

	registry registry.Registry
}

func newConfigTemplate() configTemplate {
	return configTemplate{
		clock:     clock.New(),
		protocol:  peer.DefaultProtocol(),
		seed:      1,
		autoStart: true,
		registry:  standard.NewRegistry(),
	}
}

// WithClock sets the clock driving the node's timers.
func WithClock(c clock.Clock) Option {
	return func(ct *configTemplate) {
		ct.clock = c
	}
}

// WithProfile sets the behaviour of the node.
func WithProfile(p peer.Profile) Option {
	return func(ct *configTemplate) {
		ct.profile = p
	}
}

// WithProtocol sets the protocol parameters.
func WithProtocol(p peer.ProtocolConfig) Option {
	return func(ct *configTemplate) {
		ct.protocol = p
	}
}

// WithSeed sets the seed of the node's coin.
func WithSeed(seed int64) Option {
	return func(ct *configTemplate) {
		ct.seed = seed
	}
}

// WithIncidentInterval enables periodic incident generation.
func WithIncidentInterval(d time.Duration) Option {
	return func(ct *configTemplate) {
		ct.interval = d
	}
}

// WithAttributes sets an external attribute store.
func WithAttributes(store peer.AttributeStore) Option {
	return func(ct *configTemplate) {
		ct.attributes = store
	}
}

// WithReputationHook sets the function called on each reputation change.
func WithReputationHook(f func(addr string, before, after peer.ReputationState)) Option {
	return func(ct *configTemplate) {
		ct.onChange = f
	}
}

// WithAutostart sets the autostart option.
func WithAutostart(autostart bool) Option {
	return func(ct *configTemplate) {
		ct.autoStart = autostart
	}
}

// WithMessage sets a message and handler to be registered by the peer.
func WithMessage(m types.Message, handler registry.Exec) Option {
	return func(ct *configTemplate) {
		ct.messages = append(ct.messages, m)
		ct.handlers = append(ct.handlers, handler)
	}
}

// TestNode is a peer with access to its socket.
type TestNode struct {
	peer.Peer
	config peer.Configuration
	socket transport.ClosableSocket
	t      require.TestingT
}

// NewTestNode returns a new test node.
func NewTestNode(t require.TestingT, f peer.Factory, trans transport.Transport,
	addr string, opts ...Option) TestNode {

	template := newConfigTemplate()
	for _, opt := range opts {
		opt(&template)
	}

	socket, err := trans.CreateSocket(addr)
	require.NoError(t, err)

	config := peer.Configuration{
		Socket:             socket,
		MessageRegistry:    template.registry,
		Clock:              template.clock,
		Profile:            template.profile,
		Protocol:           template.protocol,
		Seed:               template.seed,
		IncidentInterval:   template.interval,
		Attributes:         template.attributes,
		OnReputationChange: template.onChange,
	}

	node, err := f(config)
	require.NoError(t, err)

	require.Equal(t, len(template.messages), len(template.handlers))
	for i, msg := range template.messages {
		config.MessageRegistry.RegisterMessageCallback(msg, template.handlers[i])
	}

	if template.autoStart {
		err := node.Start()
		require.NoError(t, err)
	}

	return TestNode{
		Peer:   node,
		config: config,
		socket: socket,
		t:      t,
	}
}

// Stop stops the node and closes its socket.
func (t TestNode) Stop() error {
	err := t.Peer.Stop()
	if err != nil {
		return err
	}
	return t.socket.Close()
}

// GetIns returns all the messages received so far.
func (t TestNode) GetIns() []transport.Packet {
	return t.socket.GetIns()
}

// GetOuts returns all the messages sent so far.
func (t TestNode) GetOuts() []transport.Packet {
	return t.socket.GetOuts()
}

// GetRegistry returns the registry used by the node.
func (t TestNode) GetRegistry() registry.Registry {
	return t.config.MessageRegistry
}

// FilterOuts returns the sent packets carrying a message with the given
// name, in sending order.
func FilterOuts(pkts []transport.Packet, name string) []transport.Packet {
	return datastructures.Filter(pkts, func(pkt transport.Packet) bool {
		return pkt.Msg != nil && pkt.Msg.Type == name
	})
}

// Destinations returns the destination of each packet.
func Destinations(pkts []transport.Packet) []string {
	return datastructures.Map(pkts, func(pkt transport.Packet) string {
		return pkt.Header.Destination
	})
}
