package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	z "go.dedis.ch/incidents/internal/testing"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/peer/impl"
	"go.dedis.ch/incidents/transport/channel"
)

func newNodes(t *testing.T) ([]peer.Peer, func()) {
	transp := channel.NewTransport()

	a := z.NewTestNode(t, impl.NewPeer, transp, "127.0.0.1:0",
		z.WithProfile(peer.Profile{ID: 0, SelfishProbability: peer.Altruistic}))
	b := z.NewTestNode(t, impl.NewPeer, transp, "127.0.0.1:0",
		z.WithProfile(peer.Profile{ID: 1, SelfishProbability: peer.Malicious, Trusted: true}))

	return []peer.Peer{a, b}, func() {
		a.Stop()
		b.Stop()
	}
}

func Test_Reputation_Get(t *testing.T) {
	nodes, stop := newNodes(t)
	defer stop()

	logger := zerolog.Nop()
	ctrl := NewReputationCtrl(func() []peer.Peer { return nodes }, &logger)

	rec := httptest.NewRecorder()
	ctrl.ReputationHandler()(rec, httptest.NewRequest(http.MethodGet, "/reputations", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var res []NodeReputation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res, 2)

	require.Equal(t, "altruistic", res[0].Kind)
	require.Equal(t, 0.5, res[0].Reputation)
	require.Equal(t, nodes[0].GetAddress(), res[0].Address)

	require.Equal(t, "malicious", res[1].Kind)
	require.True(t, res[1].Trusted)
	require.Equal(t, 1.0, res[1].Reputation)
}

func Test_Reputation_Methods(t *testing.T) {
	logger := zerolog.Nop()
	ctrl := NewReputationCtrl(func() []peer.Peer { return nil }, &logger)

	rec := httptest.NewRecorder()
	ctrl.ReputationHandler()(rec, httptest.NewRequest(http.MethodDelete, "/reputations", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	ctrl.ReputationHandler()(rec, httptest.NewRequest(http.MethodOptions, "/reputations", nil))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func Test_Incident_Post(t *testing.T) {
	nodes, stop := newNodes(t)
	defer stop()

	logger := zerolog.Nop()
	ctrl := NewIncidentCtrl(func() []peer.Peer { return nodes }, &logger)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		ctrl.IncidentHandler()(rec, httptest.NewRequest(http.MethodPost, "/incident", strings.NewReader(body)))
		return rec
	}

	rec := post(`{"Node": 0, "DelayMs": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := IncidentResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.ID)

	// the round of node 0 is still pending
	rec = post(`{"Node": 0, "DelayMs": 0}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = post(`{"Node": 2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(`not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
