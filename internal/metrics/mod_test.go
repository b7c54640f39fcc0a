package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/incidents/peer"
)

func Test_Collector_Reputation(t *testing.T) {
	c := NewCollector()

	profile := peer.Profile{ID: 3, SelfishProbability: peer.Altruistic}

	c.ObserveReputation(profile,
		peer.ReputationState{Reputation: 0.5},
		peer.ReputationState{Valid: 1, Reputation: 2.0 / 3.0})

	c.ObserveReputation(profile,
		peer.ReputationState{Valid: 1, Reputation: 2.0 / 3.0},
		peer.ReputationState{Valid: 1, Invalid: 1, Reputation: 0.5})

	require.Equal(t, 0.5, testutil.ToFloat64(c.reputation.WithLabelValues("3", "altruistic")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.changes.WithLabelValues("altruistic", "increase")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.changes.WithLabelValues("altruistic", "decrease")))
}

func Test_Collector_Handler(t *testing.T) {
	c := NewCollector()

	generated := uint(7)
	c.WatchGenerated(func() uint { return generated })

	c.ObserveReputation(peer.Profile{ID: 0, SelfishProbability: peer.Malicious},
		peer.ReputationState{Reputation: 0.5},
		peer.ReputationState{Valid: 1, Reputation: 2.0 / 3.0})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	require.Contains(t, string(body), "incidents_incidents_generated_total 7")
	require.Contains(t, string(body), `incidents_node_reputation{kind="malicious",node="0"}`)
}
