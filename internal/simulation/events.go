package simulation

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// An event line looks like:
//
//	$ns_ at 12.5 "$node_(3) setdest 10.0 20.0 1.5"
const (
	eventMarker    = "$ns_ at"
	eventTimeField = 2
	eventNodeField = 3
	nodePrefix     = `"$node_(`
)

// Event asks a node to generate an incident at a given time of the
// simulation.
type Event struct {
	At   time.Duration
	Node int
}

// ParseEvents reads an event list. Only the lines with the event marker are
// read, the others are skipped. Events are returned sorted by time.
func ParseEvents(r io.Reader) ([]Event, error) {
	var events []Event

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++
		text := scanner.Text()

		if !strings.Contains(text, eventMarker) {
			continue
		}

		event, err := parseEvent(strings.TrimSpace(text))
		if err != nil {
			return nil, xerrors.Errorf("line %d: %v", line, err)
		}

		if event.Node < 0 {
			log.Debug().Msgf("line %d: negative node, skipping", line)
			continue
		}

		events = append(events, event)
	}

	err := scanner.Err()
	if err != nil {
		return nil, xerrors.Errorf("failed to read events: %v", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At < events[j].At
	})

	return events, nil
}

// LoadEvents reads the event list of a file.
func LoadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open event list: %v", err)
	}
	defer f.Close()

	return ParseEvents(f)
}

func parseEvent(text string) (Event, error) {
	fields := strings.Split(text, " ")
	if len(fields) <= eventNodeField {
		return Event{}, xerrors.Errorf("event has %d fields", len(fields))
	}

	seconds, err := strconv.ParseFloat(fields[eventTimeField], 64)
	if err != nil {
		return Event{}, xerrors.Errorf("invalid time: %v", err)
	}

	node := fields[eventNodeField]
	if !strings.HasPrefix(node, nodePrefix) || !strings.HasSuffix(node, ")") {
		return Event{}, xerrors.Errorf("invalid node %q", node)
	}

	id, err := strconv.Atoi(node[len(nodePrefix) : len(node)-1])
	if err != nil {
		return Event{}, xerrors.Errorf("invalid node id: %v", err)
	}

	return Event{
		At:   time.Duration(seconds * float64(time.Second)),
		Node: id,
	}, nil
}
