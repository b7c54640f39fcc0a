package impl

import (
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/registry"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
	"golang.org/x/xerrors"
)

// Values of the "event" field of the protocol logs.
const (
	eventGenerated     = "GEN_INC"
	eventConfReceived  = "CONF_RCVD"
	eventConfSent      = "CONF_SEND"
	eventNoticeRcvd    = "BRD_RCVD"
	eventRepUpdate     = "REP_UPDATE"
	eventStats         = "STATS"
	eventStatsAbsolute = "STATS-AV"
	eventStatsDensity  = "STATS-DF"
	eventStatsWeight   = "STATS-WF"
)

// node implements a peer that reports incidents and confirms the incidents
// of its neighbours.
//
// - implements peer.Peer
type node struct {
	wg          sync.WaitGroup
	run         uint32
	stopChannel chan struct{}
	stopOnce    sync.Once

	conf  peer.Configuration
	soc   transport.Socket
	reg   registry.Registry
	clock clock.Clock
	log   zerolog.Logger

	routingTable *nodeRT
	coin         *coin
	reputation   *reputationStore
	reporter     *reporter
	confirmer    *confirmer
}

func newNode(conf peer.Configuration) (*node, error) {
	myAddr := conf.Socket.GetAddress()

	parent := log.Logger
	if conf.Logger != nil {
		parent = *conf.Logger
	}

	n := &node{
		stopChannel:  make(chan struct{}),
		conf:         conf,
		soc:          conf.Socket,
		reg:          conf.MessageRegistry,
		clock:        conf.Clock,
		log:          parent.With().Str("addr", myAddr).Int("node", conf.Profile.ID).Logger(),
		routingTable: newNodeRT(myAddr),
		coin:         newCoin(conf.Seed),
		reporter:     newReporter(conf),
		confirmer:    newConfirmer(),
	}

	var onChange func(before, after peer.ReputationState)
	if conf.OnReputationChange != nil {
		onChange = func(before, after peer.ReputationState) {
			conf.OnReputationChange(myAddr, before, after)
		}
	}

	reputation, err := newReputationStore(conf.Attributes, conf.Profile, onChange)
	if err != nil {
		return nil, xerrors.Errorf("failed to create reputation store: %v", err)
	}
	n.reputation = reputation

	n.reg.RegisterMessageCallback(types.IncidentNoticeMessage{}, n.ExecIncidentNoticeMessage)
	n.reg.RegisterMessageCallback(types.ConfirmationMessage{}, n.ExecConfirmationMessage)
	n.reg.RegisterMessageCallback(types.ReputationUpdateMessage{}, n.ExecReputationUpdateMessage)

	return n, nil
}

// AddPeer implements peer.Peer
func (n *node) AddPeer(addr ...string) {
	n.routingTable.addEntries(addr)
}

// GetNeighbours implements peer.Peer
func (n *node) GetNeighbours() []string {
	return n.routingTable.getNeighbours()
}

// GetAddress implements peer.Peer
func (n *node) GetAddress() string {
	return n.soc.GetAddress()
}

// GetProfile implements peer.Peer
func (n *node) GetProfile() peer.Profile {
	return n.conf.Profile
}

// GetReputation implements peer.Peer
func (n *node) GetReputation() peer.ReputationState {
	state, err := n.reputation.State()
	if err != nil {
		n.log.Err(err).Msg("failed to read reputation")
	}
	return state
}

// selfishness returns the current selfish probability of the node.
func (n *node) selfishness() float64 {
	value, err := n.conf.Attributes.GetAttribute(peer.SelfishProbAttribute)
	if err != nil {
		n.log.Err(err).Msg("failed to read selfishness")
		return n.conf.Profile.SelfishProbability
	}
	return value
}
