package simulation

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.dedis.ch/incidents/peer"
	"golang.org/x/xerrors"
)

// Sample is the state of the reputations at a point of the simulation.
type Sample struct {
	At time.Duration
	// Generated is the number of incidents generated so far.
	Generated uint
	// Reputations are ordered by node.
	Reputations []float64
}

// TraceSink records the samples of a simulation.
type TraceSink interface {
	Record(ctx context.Context, sample Sample) error
	Close() error
}

// CSVSink writes one line per sample: the number of generated incidents
// followed by the reputation of every node.
//
// - implements simulation.TraceSink
type CSVSink struct {
	closer io.Closer
	writer *csv.Writer
}

// NewCSVSink returns a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	sink := &CSVSink{
		writer: csv.NewWriter(w),
	}

	if c, ok := w.(io.Closer); ok {
		sink.closer = c
	}

	return sink
}

// CreateCSVSink returns a sink writing to a new file.
func CreateCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to create reputation trace: %v", err)
	}

	return NewCSVSink(f), nil
}

// Record implements simulation.TraceSink.
func (s *CSVSink) Record(_ context.Context, sample Sample) error {
	record := make([]string, 0, len(sample.Reputations)+1)
	record = append(record, strconv.FormatUint(uint64(sample.Generated), 10))

	for _, r := range sample.Reputations {
		record = append(record, formatValue(r))
	}

	err := s.writer.Write(record)
	if err != nil {
		return xerrors.Errorf("failed to write sample: %v", err)
	}

	s.writer.Flush()

	return s.writer.Error()
}

// Close implements simulation.TraceSink.
func (s *CSVSink) Close() error {
	s.writer.Flush()

	err := s.writer.Error()
	if err != nil {
		return xerrors.Errorf("failed to flush: %v", err)
	}

	if s.closer != nil {
		return s.closer.Close()
	}

	return nil
}

// NodeInfo describes a node once the population is created.
type NodeInfo struct {
	Address string
	Profile peer.Profile
	State   peer.ReputationState
}

// WriteNodeInfo writes one line per node with its address, selfishness and
// reputation.
func WriteNodeInfo(w io.Writer, nodes []NodeInfo) error {
	for _, n := range nodes {
		_, err := fmt.Fprintf(w, "Created Node %d [%s]. -- Selfishness probability = %s, Reputation = %s\n",
			n.Profile.ID, n.Address, formatValue(n.Profile.SelfishProbability), formatValue(n.State.Reputation))
		if err != nil {
			return xerrors.Errorf("failed to write node %d: %v", n.Profile.ID, err)
		}
	}

	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
