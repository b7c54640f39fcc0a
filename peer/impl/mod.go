package impl

import (
	"github.com/benbjohnson/clock"
	"go.dedis.ch/incidents/peer"
	"golang.org/x/xerrors"
)

// NewPeer creates a new peer. Missing optional parts of the configuration
// are filled with defaults: the wall clock, an in-memory attribute store, the
// default protocol and a clock based seed.
func NewPeer(conf peer.Configuration) (peer.Peer, error) {
	if conf.Socket == nil || conf.MessageRegistry == nil {
		return nil, xerrors.Errorf("a socket and a message registry are required")
	}

	if conf.Clock == nil {
		conf.Clock = clock.New()
	}

	if conf.Attributes == nil {
		conf.Attributes = newAttributeStore()
	}

	if conf.Protocol == (peer.ProtocolConfig{}) {
		conf.Protocol = peer.DefaultProtocol()
	}

	if conf.Seed == 0 {
		conf.Seed = conf.Clock.Now().UnixNano()
	}

	err := conf.Protocol.Validate()
	if err != nil {
		return nil, xerrors.Errorf("invalid protocol configuration: %v", err)
	}

	return newNode(conf)
}
