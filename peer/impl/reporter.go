package impl

import (
	"sync"
	"time"

	"github.com/rs/xid"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/types"
	"go.dedis.ch/incidents/validation"
	"golang.org/x/xerrors"
)

// reporter holds the state of the incidents generated by the node. At most
// one incident is pending: from its generation until its round is validated.
type reporter struct {
	sync.Mutex

	protocol  peer.ProtocolConfig
	validator validation.Validator

	sendTimer *eventTimer
	window    *eventTimer

	// ID of the pending incident, empty if none
	pending string
	// collects confirmations, only set while the window is open
	round *validation.Round

	stats    peer.ReporterStats
	outcomes peer.NotificationService[string, validation.Decision]
}

func newReporter(conf peer.Configuration) *reporter {
	return &reporter{
		protocol:  conf.Protocol,
		validator: conf.Protocol.Validator(),
		sendTimer: newEventTimer(conf.Clock),
		window:    newEventTimer(conf.Clock),
		outcomes:  NewNotificationService[string, validation.Decision](conf.Clock),
	}
}

func (r *reporter) close() {
	r.sendTimer.Cancel()
	r.window.Cancel()
	r.outcomes.Close()

	r.Lock()
	r.round = nil
	r.pending = ""
	r.Unlock()
}

// GenerateIncident implements peer.Reporter
func (n *node) GenerateIncident(delay time.Duration) (string, error) {
	id := xid.New().String()

	err := n.generateIncident(id, delay)
	if err != nil {
		return "", err
	}

	return id, nil
}

// GenerateIncidentAndWait implements peer.Reporter
func (n *node) GenerateIncidentAndWait(delay, timeout time.Duration) (validation.Decision, error) {
	id := xid.New().String()

	generate := func() error {
		return n.generateIncident(id, delay)
	}

	decision, err := n.reporter.outcomes.ExecuteAndWait(generate, id, timeout)
	if err != nil {
		return validation.DoNothing, xerrors.Errorf("incident %s: %w", id, err)
	}

	return decision, nil
}

// GetReporterStats implements peer.Reporter
func (n *node) GetReporterStats() peer.ReporterStats {
	n.reporter.Lock()
	defer n.reporter.Unlock()

	return n.reporter.stats
}

func (n *node) generateIncident(id string, delay time.Duration) error {
	r := n.reporter

	r.Lock()
	defer r.Unlock()

	if r.pending != "" {
		return peer.ErrIncidentPending
	}

	err := r.sendTimer.Schedule(delay, n.onSendTimer)
	if err != nil {
		return xerrors.Errorf("failed to schedule incident: %v", err)
	}

	r.pending = id
	r.stats.Generated++

	n.log.Info().Str("event", eventGenerated).
		Str("incident", id).
		Dur("delay", delay).
		Msg("incident generated")

	return nil
}

// broadcasts the notice of the pending incident and opens its confirmation
// window
func (n *node) onSendTimer() {
	r := n.reporter

	r.Lock()
	if r.pending == "" {
		r.Unlock()
		return
	}

	id := r.pending
	r.round = validation.NewRound(id)
	r.stats.Sent++

	err := r.window.Schedule(r.protocol.TimerDelay, n.onWindowExpired)
	r.Unlock()

	if err != nil {
		n.log.Err(err).Msgf("failed to open the window of %s", id)
		n.finishRound(id, validation.DoNothing)
		return
	}

	sent := n.broadcastNotice()
	n.log.Debug().Msgf("notice of %s sent to %d neighbours", id, sent)
}

// handles a confirmation received from a neighbour
func (n *node) onConfirmation(from string, msg types.ConfirmationMessage) {
	r := n.reporter

	r.Lock()
	defer r.Unlock()

	if r.round == nil {
		n.log.Debug().Msgf("late confirmation from %s dropped", from)
		return
	}

	r.round.SawNeighbour(from)

	accepted := n.acceptConfirmation(msg)

	n.log.Info().Str("event", eventConfReceived).
		Str("from", from).
		Str("incident", r.round.ID).
		Float64("reputation", msg.Reputation).
		Float64("selfishness", msg.Selfishness).
		Bool("accepted", accepted).
		Msg("confirmation received")

	if !accepted {
		return
	}

	r.round.Accept(validation.Confirmation{
		Peer:        from,
		Reputation:  msg.Reputation,
		Selfishness: msg.Selfishness,
	}, r.protocol.ReputationThreshold)
}

// A malicious reporter only trusts malicious confirmers. Others keep a
// confirmation with a probability given by the selfishness it reports.
func (n *node) acceptConfirmation(msg types.ConfirmationMessage) bool {
	if n.conf.Profile.IsMalicious() {
		return msg.Selfishness == peer.Malicious
	}
	return n.coin.Toss(msg.Selfishness)
}

// validates the round once the confirmation window is closed
func (n *node) onWindowExpired() {
	r := n.reporter

	r.Lock()
	round := r.round
	r.round = nil
	r.Unlock()

	if round == nil {
		return
	}

	own, err := n.reputation.State()
	if err != nil {
		n.log.Err(err).Msgf("failed to validate %s", round.ID)
		n.finishRound(round.ID, validation.DoNothing)
		return
	}

	verdict, err := r.validator.Validate(round, own.Reputation)
	if err != nil {
		n.log.Err(err).Msgf("failed to validate %s", round.ID)
		n.finishRound(round.ID, validation.DoNothing)
		return
	}

	n.logVerdict(round, verdict)

	switch verdict.Decision {
	case validation.IncreaseReputation:
		_, err = n.reputation.Increase(r.protocol.GeneratedIncidentWeight)
		n.fanOut(round, types.Increase)
	case validation.DecreaseReputation:
		_, err = n.reputation.Decrease()
		n.fanOut(round, types.Decrease)
	}

	if err != nil {
		n.log.Err(err).Msgf("failed to update reputation after %s", round.ID)
	}

	n.finishRound(round.ID, verdict.Decision)
}

// sends the update to the confirmers of the round, most recent first
func (n *node) fanOut(round *validation.Round, action types.ReputationAction) {
	sent := n.sendReputationUpdates(round.Confirmers(), action)

	n.reporter.Lock()
	n.reporter.stats.Sent += uint(sent)
	n.reporter.Unlock()
}

func (n *node) finishRound(id string, decision validation.Decision) {
	r := n.reporter

	r.Lock()
	switch decision {
	case validation.IncreaseReputation:
		r.stats.Increases++
	case validation.DecreaseReputation:
		r.stats.Decreases++
	default:
		r.stats.IdleRounds++
	}
	if r.pending == id {
		r.pending = ""
	}
	stats := r.stats
	r.Unlock()

	state := n.GetReputation()

	n.log.Info().Str("event", eventStats).
		Str("incident", id).
		Str("decision", decision.String()).
		Uint("generated", stats.Generated).
		Uint("sent", stats.Sent).
		Float64("valid", state.Valid).
		Float64("invalid", state.Invalid).
		Float64("reputation", state.Reputation).
		Msg("round finished")

	r.outcomes.Notify(id, decision)
}

func (n *node) logVerdict(round *validation.Round, verdict validation.Verdict) {
	event := eventStatsAbsolute
	switch n.reporter.validator.Mode {
	case validation.DensityMode:
		event = eventStatsDensity
	case validation.WeightMode:
		event = eventStatsWeight
	}

	n.log.Info().Str("event", event).
		Str("incident", round.ID).
		Int("confirmations", verdict.Confirmations).
		Int("neighbours", verdict.Neighbours).
		Float64("required", verdict.Required).
		Float64("floor", verdict.Floor).
		Float64("weight", verdict.Weight).
		Bool("highReputation", round.HighReputationConfirmer).
		Str("decision", verdict.Decision.String()).
		Msg("round validated")
}
