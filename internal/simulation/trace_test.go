package simulation

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/incidents/peer"
)

func Test_CSVSink_Format(t *testing.T) {
	buf := new(bytes.Buffer)
	sink := NewCSVSink(buf)

	err := sink.Record(context.Background(), Sample{Generated: 0, Reputations: []float64{0.5, 0.5}})
	require.NoError(t, err)

	err = sink.Record(context.Background(), Sample{Generated: 3, Reputations: []float64{2.0 / 3.0, 0.25, 1}})
	require.NoError(t, err)

	require.NoError(t, sink.Close())

	require.Equal(t, "0,0.5,0.5\n3,0.666667,0.25,1\n", buf.String())
}

func Test_CSVSink_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reputations.csv")

	sink, err := CreateCSVSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Record(context.Background(), Sample{Generated: 1, Reputations: []float64{0.75}}))
	require.NoError(t, sink.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1,0.75\n", string(content))
}

func Test_WriteNodeInfo(t *testing.T) {
	buf := new(bytes.Buffer)

	err := WriteNodeInfo(buf, []NodeInfo{
		{
			Address: "127.0.0.1:1",
			Profile: peer.Profile{ID: 0, SelfishProbability: peer.Malicious},
			State:   peer.ReputationState{Reputation: 0.5},
		},
		{
			Address: "127.0.0.1:2",
			Profile: peer.Profile{ID: 1, SelfishProbability: 0.3},
			State:   peer.ReputationState{Reputation: 1},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{
		"Created Node 0 [127.0.0.1:1]. -- Selfishness probability = -1, Reputation = 0.5",
		"Created Node 1 [127.0.0.1:2]. -- Selfishness probability = 0.3, Reputation = 1",
	}, lines)
}

func Test_Firestore_Document(t *testing.T) {
	sink := &FirestoreSink{run: "abc"}

	doc := sink.document(Sample{
		At:          1500 * time.Millisecond,
		Generated:   4,
		Reputations: []float64{0.5},
	})

	require.Equal(t, map[string]interface{}{
		"run":         "abc",
		"seconds":     1.5,
		"generated":   int64(4),
		"reputations": []float64{0.5},
	}, doc)
}

func Test_Firestore_Missing_Credentials(t *testing.T) {
	_, err := NewFirestoreSink(context.Background(),
		filepath.Join(t.TempDir(), "missing.json"), "reputations")
	require.Error(t, err)
}
