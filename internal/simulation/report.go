package simulation

import (
	"fmt"
	"io"
	"sort"
	"time"

	"go.dedis.ch/incidents/datastructures"
	"go.dedis.ch/incidents/peer"
)

// NodeReport is the final state of a node.
type NodeReport struct {
	Address   string
	Profile   peer.Profile
	State     peer.ReputationState
	Reporter  peer.ReporterStats
	Confirmer peer.ConfirmerStats
}

// KindReport aggregates the nodes of a behaviour.
type KindReport struct {
	Kind           string
	Nodes          int
	MeanReputation float64
	MinReputation  float64
	MaxReputation  float64
	Reporter       peer.ReporterStats
	Confirmer      peer.ConfirmerStats
}

// Report is the outcome of a simulation.
type Report struct {
	Duration  time.Duration
	Generated uint
	// Reporters is the number of nodes that generated at least one
	// incident.
	Reporters int
	Nodes     []NodeReport
}

func (s *Simulation) report() Report {
	nodes := make([]NodeReport, len(s.nodes))
	for i, node := range s.nodes {
		nodes[i] = NodeReport{
			Address:   node.GetAddress(),
			Profile:   node.GetProfile(),
			State:     node.GetReputation(),
			Reporter:  node.GetReporterStats(),
			Confirmer: node.GetConfirmerStats(),
		}
	}

	return Report{
		Duration:  s.clock.Since(s.start),
		Generated: s.Generated(),
		Reporters: s.reporters.Size(),
		Nodes:     nodes,
	}
}

// ByKind aggregates the nodes per behaviour, sorted by kind.
func (r Report) ByKind() []KindReport {
	kinds := datastructures.EmptySet[string]()
	for _, n := range r.Nodes {
		kinds.Add(n.Profile.Kind())
	}

	names := kinds.ToArray()
	sort.Strings(names)

	res := make([]KindReport, len(names))

	for i, kind := range names {
		kind := kind
		nodes := datastructures.Filter(r.Nodes, func(n NodeReport) bool {
			return n.Profile.Kind() == kind
		})

		reputations := datastructures.Map(nodes, func(n NodeReport) float64 {
			return n.State.Reputation
		})

		agg := KindReport{
			Kind:          kind,
			Nodes:         len(nodes),
			MinReputation: reputations[0],
			MaxReputation: reputations[0],
		}

		sum := 0.0
		for _, rep := range reputations {
			sum += rep
			if rep < agg.MinReputation {
				agg.MinReputation = rep
			}
			if rep > agg.MaxReputation {
				agg.MaxReputation = rep
			}
		}
		agg.MeanReputation = sum / float64(len(reputations))

		for _, n := range nodes {
			agg.Reporter.Generated += n.Reporter.Generated
			agg.Reporter.Sent += n.Reporter.Sent
			agg.Reporter.Increases += n.Reporter.Increases
			agg.Reporter.Decreases += n.Reporter.Decreases
			agg.Reporter.IdleRounds += n.Reporter.IdleRounds

			agg.Confirmer.NoticesReceived += n.Confirmer.NoticesReceived
			agg.Confirmer.ConfirmationsSent += n.Confirmer.ConfirmationsSent
			agg.Confirmer.UpdatesApplied += n.Confirmer.UpdatesApplied
		}

		res[i] = agg
	}

	return res
}

// WriteSummary writes one line per behaviour.
func (r Report) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d incidents generated by %d nodes in %s\n",
		r.Generated, r.Reporters, r.Duration)
	if err != nil {
		return err
	}

	for _, k := range r.ByKind() {
		_, err = fmt.Fprintf(w, "%-10s nodes=%-4d reputation mean=%.4f min=%.4f max=%.4f "+
			"generated=%d increases=%d decreases=%d idle=%d confirmations=%d\n",
			k.Kind, k.Nodes, k.MeanReputation, k.MinReputation, k.MaxReputation,
			k.Reporter.Generated, k.Reporter.Increases, k.Reporter.Decreases,
			k.Reporter.IdleRounds, k.Confirmer.ConfirmationsSent)
		if err != nil {
			return err
		}
	}

	return nil
}
