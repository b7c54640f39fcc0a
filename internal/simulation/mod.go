// Package simulation runs a population of nodes that report and confirm
// incidents, and traces the evolution of their reputations.
package simulation

import (
	"context"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.dedis.ch/incidents/datastructures/concurrent"
	"go.dedis.ch/incidents/internal/params"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/peer/impl"
	"go.dedis.ch/incidents/registry/standard"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/transport/channel"
	"golang.org/x/xerrors"
)

const (
	// first sample of the reputations
	sampleOffset = time.Second
	// first random incident
	generationOffset = 3 * time.Second
)

// Option configures a simulation.
type Option func(*Simulation)

// WithClock sets the clock of the simulation and of its nodes.
func WithClock(c clock.Clock) Option {
	return func(s *Simulation) {
		s.clock = c
	}
}

// WithTransport sets the transport the nodes communicate through.
func WithTransport(t transport.Transport) Option {
	return func(s *Simulation) {
		s.transport = t
	}
}

// WithFactory sets the factory of the nodes.
func WithFactory(f peer.Factory) Option {
	return func(s *Simulation) {
		s.factory = f
	}
}

// WithSink adds a sink of the reputation samples.
func WithSink(sink TraceSink) Option {
	return func(s *Simulation) {
		s.sinks = append(s.sinks, sink)
	}
}

// WithEvents replaces the random incidents by a list of events.
func WithEvents(events []Event) Option {
	return func(s *Simulation) {
		s.events = events
	}
}

// WithObserver sets a function called on every reputation change with the
// profile of the node.
func WithObserver(f func(profile peer.Profile, before, after peer.ReputationState)) Option {
	return func(s *Simulation) {
		s.observer = f
	}
}

// WithLogger sets the parent logger of the simulation and of its nodes.
// Defaults to the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// Simulation is a population of nodes linked by a random topology.
type Simulation struct {
	params    params.Parameters
	clock     clock.Clock
	transport transport.Transport
	factory   peer.Factory
	sinks     []TraceSink
	events    []Event
	observer  func(profile peer.Profile, before, after peer.ReputationState)
	rng       *rand.Rand
	logger    zerolog.Logger
	log       zerolog.Logger
	// parent of the nodes' loggers
	nodeLog zerolog.Logger

	profiles []peer.Profile
	nodes    []peer.Peer
	sockets  []transport.ClosableSocket
	links    []Link

	reputations *concurrent.Map[int, float64]
	reporters   *concurrent.Set[int]
	generated   uint32
	start       time.Time
}

// New creates the nodes of a simulation and links them. The nodes are not
// started.
func New(p params.Parameters, opts ...Option) (*Simulation, error) {
	err := p.Validate()
	if err != nil {
		return nil, xerrors.Errorf("invalid parameters: %v", err)
	}

	s := &Simulation{
		params:      p,
		clock:       clock.New(),
		factory:     impl.NewPeer,
		logger:      log.Logger,
		reputations: concurrent.NewMap[int, float64](),
		reporters:   concurrent.NewSet[int](),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.logger.With().Str("component", "simulation").Logger()

	// the protocol events are logged at info level, only kept with the log
	// parameter
	s.nodeLog = s.logger
	if !p.Log && s.nodeLog.GetLevel() < zerolog.WarnLevel {
		s.nodeLog = s.nodeLog.Level(zerolog.WarnLevel)
	}

	seed := p.Seed
	if seed == 0 {
		seed = s.clock.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))

	if s.transport == nil {
		s.transport = channel.NewTransport(channel.WithDropRate(p.DropRate, seed))
	}

	s.profiles = NewPopulation(p, s.rng)

	for _, event := range s.events {
		if event.Node >= len(s.profiles) {
			return nil, xerrors.Errorf("event at %s for unknown node %d", event.At, event.Node)
		}
	}

	for _, profile := range s.profiles {
		err = s.createNode(profile)
		if err != nil {
			s.closeSockets()
			return nil, xerrors.Errorf("failed to create node %d: %v", profile.ID, err)
		}
	}

	s.links = NewTopology(len(s.nodes), p.LinkProbability, s.rng)
	for _, link := range s.links {
		s.nodes[link.A].AddPeer(s.nodes[link.B].GetAddress())
		s.nodes[link.B].AddPeer(s.nodes[link.A].GetAddress())
	}

	groups := NewGroups(p)
	s.log.Info().
		Int("selfish", groups.Selfish).
		Int("altruistic", groups.Altruistic).
		Int("malicious", groups.Malicious).
		Int("random", groups.Random).
		Int("links", len(s.links)).
		Int64("seed", seed).
		Msg("population created")

	if p.DumpTopology && p.TopologyFile != "" {
		err = s.dumpTopology(p.TopologyFile)
		if err != nil {
			s.closeSockets()
			return nil, err
		}
	}

	return s, nil
}

func (s *Simulation) createNode(profile peer.Profile) error {
	socket, err := s.transport.CreateSocket("127.0.0.1:0")
	if err != nil {
		return xerrors.Errorf("failed to create socket: %v", err)
	}

	id := profile.ID

	node, err := s.factory(peer.Configuration{
		Socket:          socket,
		MessageRegistry: standard.NewRegistry(),
		Clock:           s.clock,
		Profile:         profile,
		Protocol:        s.params.Protocol(),
		Seed:            s.rng.Int63(),
		Logger:          &s.nodeLog,
		OnReputationChange: func(_ string, before, after peer.ReputationState) {
			s.reputations.Set(id, after.Reputation)
			if s.observer != nil {
				s.observer(profile, before, after)
			}
		},
	})
	if err != nil {
		socket.Close()
		return err
	}

	s.reputations.Set(id, node.GetReputation().Reputation)
	s.nodes = append(s.nodes, node)
	s.sockets = append(s.sockets, socket)

	return nil
}

// Nodes returns the nodes, ordered by id.
func (s *Simulation) Nodes() []peer.Peer {
	return append([]peer.Peer{}, s.nodes...)
}

// Links returns the links of the topology.
func (s *Simulation) Links() []Link {
	return append([]Link{}, s.links...)
}

// Run starts the nodes, generates incidents until the end of the simulation
// or the cancellation of the context, and stops the nodes. The sinks are
// closed once the simulation is over.
func (s *Simulation) Run(ctx context.Context) (Report, error) {
	defer s.closeSinks()
	defer s.closeSockets()

	s.start = s.clock.Now()

	for i, node := range s.nodes {
		err := node.Start()
		if err != nil {
			s.stopNodes(s.nodes[:i])
			return Report{}, xerrors.Errorf("failed to start node %d: %v", i, err)
		}
	}

	end := s.clock.Timer(s.params.Duration)
	defer end.Stop()

	stop := make(chan struct{})
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.every(stop, sampleOffset, s.params.GenerationInterval, func() {
			s.sample(ctx)
		})
	}()

	if len(s.events) > 0 {
		for _, event := range s.events {
			wg.Add(1)
			go func(event Event) {
				defer wg.Done()
				s.at(stop, event.At, func() { s.generate(event.Node) })
			}(event)
		}
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.every(stop, generationOffset, s.params.GenerationInterval, func() {
				s.generate(s.rng.Intn(len(s.nodes)))
			})
		}()
	}

	var err error

	select {
	case <-end.C:
	case <-ctx.Done():
		err = ctx.Err()
	}

	close(stop)
	wg.Wait()

	s.stopNodes(s.nodes)

	report := s.report()

	s.log.Info().
		Uint("generated", report.Generated).
		Dur("elapsed", report.Duration).
		Msg("simulation over")

	return report, err
}

// at calls f once the delay elapsed, unless stop is closed first. Incidents
// are generated from this goroutine rather than from a clock callback, as
// the mock clock holds its lock while running callbacks.
func (s *Simulation) at(stop chan struct{}, delay time.Duration, f func()) {
	timer := s.clock.Timer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		f()
	case <-stop:
	}
}

// every calls f after the offset, then on every interval, until stop is
// closed.
func (s *Simulation) every(stop chan struct{}, offset, interval time.Duration, f func()) {
	first := s.clock.Timer(offset)
	defer first.Stop()

	select {
	case <-first.C:
	case <-stop:
		return
	}

	f()

	ticker := s.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f()
		case <-stop:
			return
		}
	}
}

func (s *Simulation) generate(i int) {
	id, err := s.nodes[i].GenerateIncident(0)
	if err != nil {
		s.log.Debug().Err(err).Int("node", i).Msg("incident not generated")
		return
	}

	atomic.AddUint32(&s.generated, 1)
	s.reporters.Add(i)

	s.log.Debug().Int("node", i).Str("incident", id).Msg("incident generated")
}

// Generated returns the number of incidents generated so far.
func (s *Simulation) Generated() uint {
	return uint(atomic.LoadUint32(&s.generated))
}

// Reputations returns the current reputation of every node.
func (s *Simulation) Reputations() []float64 {
	res := make([]float64, len(s.nodes))
	for i := range res {
		res[i] = s.reputations.GetOrDefault(i, 0)
	}
	return res
}

func (s *Simulation) sample(ctx context.Context) {
	sample := Sample{
		At:          s.clock.Since(s.start),
		Generated:   s.Generated(),
		Reputations: s.Reputations(),
	}

	for _, sink := range s.sinks {
		err := sink.Record(ctx, sample)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to record sample")
		}
	}
}

func (s *Simulation) stopNodes(nodes []peer.Peer) {
	wg := sync.WaitGroup{}

	for _, node := range nodes {
		wg.Add(1)
		go func(n peer.Peer) {
			defer wg.Done()

			err := n.Stop()
			if err != nil {
				s.log.Warn().Err(err).Str("addr", n.GetAddress()).Msg("failed to stop node")
			}
		}(node)
	}

	wg.Wait()
}

func (s *Simulation) closeSockets() {
	for _, socket := range s.sockets {
		socket.Close()
	}
	s.sockets = nil
}

func (s *Simulation) closeSinks() {
	for _, sink := range s.sinks {
		err := sink.Close()
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to close sink")
		}
	}
}

func (s *Simulation) dumpTopology(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("failed to create topology file: %v", err)
	}
	defer f.Close()

	infos := make([]NodeInfo, len(s.nodes))
	for i, node := range s.nodes {
		infos[i] = NodeInfo{
			Address: node.GetAddress(),
			Profile: node.GetProfile(),
			State:   node.GetReputation(),
		}
	}

	err = WriteNodeInfo(f, infos)
	if err != nil {
		return xerrors.Errorf("failed to dump topology: %v", err)
	}

	return nil
}
