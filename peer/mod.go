package peer

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"go.dedis.ch/incidents/registry"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/validation"
	"golang.org/x/xerrors"
)

// ErrIncidentPending is returned when an incident is generated while the
// previous one is still waiting to be broadcast or validated.
var ErrIncidentPending = xerrors.New("an incident is already pending")

// Peer defines the interface of a node taking part in incident validation.
type Peer interface {
	Service
	Reporter
	Confirmer

	// AddPeer adds new known addresses to the node. Each address becomes a
	// neighbour that receives the incident notices of the node.
	AddPeer(addr ...string)

	// GetNeighbours returns a copy of the node's neighbours.
	GetNeighbours() []string

	// GetAddress returns the address of the node's socket.
	GetAddress() string

	// GetProfile returns the behaviour profile of the node.
	GetProfile() Profile

	// GetReputation returns the current reputation state of the node.
	GetReputation() ReputationState
}

// Factory creates a peer from its configuration.
type Factory func(Configuration) (Peer, error)

// Service defines the functions of a node's life cycle.
type Service interface {
	Start() error
	Stop() error
}

// Reporter defines the functions of a node reporting incidents.
type Reporter interface {
	// GenerateIncident schedules the broadcast of a new incident notice
	// after delay. Returns the ID of the round, or ErrIncidentPending if the
	// previous round is not finished.
	GenerateIncident(delay time.Duration) (string, error)

	// GenerateIncidentAndWait generates an incident and blocks until its
	// confirmation window is validated. A timeout of 0 waits indefinitely.
	GenerateIncidentAndWait(delay, timeout time.Duration) (validation.Decision, error)

	// GetReporterStats returns the counters of the reporter.
	GetReporterStats() ReporterStats
}

// Confirmer defines the functions of a node answering incident notices.
type Confirmer interface {
	// GetConfirmerStats returns the counters of the confirmer.
	GetConfirmerStats() ConfirmerStats
}

// ReporterStats are the counters kept by a reporter.
type ReporterStats struct {
	Generated  uint
	Sent       uint
	Increases  uint
	Decreases  uint
	IdleRounds uint
}

// ConfirmerStats are the counters kept by a confirmer.
type ConfirmerStats struct {
	NoticesReceived   uint
	ConfirmationsSent uint
	UpdatesApplied    uint
}

// Configuration if the struct that will contain the configuration argument
// when creating a peer. This struct will evolve.
type Configuration struct {
	Socket          transport.Socket
	MessageRegistry registry.Registry

	// Clock drives every timer of the node. Defaults to the wall clock.
	Clock clock.Clock

	Profile  Profile
	Protocol ProtocolConfig

	// Seed of the node's coin. 0 seeds from the clock.
	Seed int64

	// IncidentInterval is the interval between two incidents generated by
	// the node on its own, starting after Protocol.StartOffset. 0 disables
	// periodic generation.
	IncidentInterval time.Duration

	// Attributes holds the node's attributes. Defaults to an in-memory
	// store.
	Attributes AttributeStore

	// OnReputationChange is called after each update of the node's
	// reputation. Can be nil.
	OnReputationChange func(addr string, before, after ReputationState)

	// Logger is the parent of the node's logger. Defaults to the global
	// logger.
	Logger *zerolog.Logger
}
