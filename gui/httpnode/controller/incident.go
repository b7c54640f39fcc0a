package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.dedis.ch/incidents/peer"
)

// IncidentArgument asks a node to generate an incident.
//
//	{
//	    "Node": 3,
//	    "DelayMs": 100
//	}
type IncidentArgument struct {
	Node    int
	DelayMs int
}

// IncidentResponse gives the id of the generated incident.
type IncidentResponse struct {
	ID string
}

// NewIncidentCtrl returns a new initialized incident controller.
func NewIncidentCtrl(nodes func() []peer.Peer, log *zerolog.Logger) incidentctrl {
	return incidentctrl{
		nodes: nodes,
		log:   log,
	}
}

type incidentctrl struct {
	nodes func() []peer.Peer
	log   *zerolog.Logger
}

// IncidentHandler generates incidents on demand.
func (i incidentctrl) IncidentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			i.incidentPost(w, r)
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

func (i incidentctrl) incidentPost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	buf, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusInternalServerError)
		return
	}

	i.log.Info().Msgf("got the following message: %s", buf)

	arg := IncidentArgument{}
	err = json.Unmarshal(buf, &arg)
	if err != nil {
		http.Error(w, "failed to unmarshal incident argument: "+err.Error(),
			http.StatusBadRequest)
		return
	}

	nodes := i.nodes()
	if arg.Node < 0 || arg.Node >= len(nodes) || arg.DelayMs < 0 {
		http.Error(w, "invalid incident argument", http.StatusBadRequest)
		return
	}

	id, err := nodes[arg.Node].GenerateIncident(time.Duration(arg.DelayMs) * time.Millisecond)
	if err != nil {
		http.Error(w, "failed to generate incident: "+err.Error(), http.StatusConflict)
		return
	}

	buf, err = json.Marshal(&IncidentResponse{ID: id})
	if err != nil {
		http.Error(w, "failed to marshal response: "+err.Error(),
			http.StatusInternalServerError)
		return
	}

	w.Write(buf)
}
