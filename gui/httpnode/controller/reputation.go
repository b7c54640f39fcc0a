package controller

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"go.dedis.ch/incidents/peer"
)

// NodeReputation is the reputation of a node as served by the controller.
type NodeReputation struct {
	ID         int
	Address    string
	Kind       string
	Trusted    bool
	Valid      float64
	Invalid    float64
	Reputation float64
}

// NewReputationCtrl returns a new initialized reputation controller.
func NewReputationCtrl(nodes func() []peer.Peer, log *zerolog.Logger) reputationctrl {
	return reputationctrl{
		nodes: nodes,
		log:   log,
	}
}

type reputationctrl struct {
	nodes func() []peer.Peer
	log   *zerolog.Logger
}

// ReputationHandler serves the reputations of the nodes.
func (rc reputationctrl) ReputationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rc.reputationGet(w, r)
		case http.MethodOptions:
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			return
		default:
			http.Error(w, "forbidden method", http.StatusMethodNotAllowed)
			return
		}
	}
}

func (rc reputationctrl) reputationGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	nodes := rc.nodes()
	res := make([]NodeReputation, len(nodes))

	for i, node := range nodes {
		profile := node.GetProfile()
		state := node.GetReputation()

		res[i] = NodeReputation{
			ID:         profile.ID,
			Address:    node.GetAddress(),
			Kind:       profile.Kind(),
			Trusted:    profile.Trusted,
			Valid:      state.Valid,
			Invalid:    state.Invalid,
			Reputation: state.Reputation,
		}
	}

	buf, err := json.MarshalIndent(&res, "", "\t")
	if err != nil {
		http.Error(w, "failed to marshal reputations: "+err.Error(),
			http.StatusInternalServerError)
		return
	}

	rc.log.Debug().Int("nodes", len(res)).Msg("reputations served")

	w.Write(buf)
}
