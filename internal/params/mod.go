// Package params reads the parameters of a simulation from a key=value file.
// Lines containing a '#' are comments.
package params

import (
	"bufio"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/validation"
	"golang.org/x/xerrors"
)

// CommentMarker marks a line as a comment.
const CommentMarker = "#"

// keys of the mobility and animation parts of a parameter file. They are
// accepted and ignored.
var ignoredKeys = map[string]struct{}{
	"traceFile":              {},
	"outputFile":             {},
	"wifiRange":              {},
	"posStatsFile":           {},
	"anim":                   {},
	"initialReputationValue": {},
}

// Parameters of a simulation.
type Parameters struct {
	NodeNum int

	// fractions of the population, the rest are random nodes
	SelfishNodes    float64
	AltruisticNodes float64
	MaliciousNodes  float64
	// fraction of the altruistic nodes that are trusted
	TrustedNodes float64

	InitialValidIncidents   float64
	InitialInvalidIncidents float64

	Duration           time.Duration
	WaitConfirmations  time.Duration
	GenerationInterval time.Duration

	ValidationMode   validation.Mode
	WeightFunction   validation.WeightFunction
	ConfirmationThr  float64
	FalseIncidentThr float64
	ReputationThr    float64
	// the weight of a confirmed incident is the inverse of this value
	GeneratedIncWeight float64

	// probability of a link between two nodes
	LinkProbability float64
	// probability of a packet loss
	DropRate float64
	Seed     int64

	ReputationTraceFile string
	EventListFile       string
	TopologyFile        string
	DumpTopology        bool
	// Log enables the protocol event trace of the nodes.
	Log bool

	FirestoreCredentials string
	FirestoreCollection  string
}

// Default returns the default parameters.
func Default() Parameters {
	return Parameters{
		NodeNum:             100,
		SelfishNodes:        .25,
		AltruisticNodes:     .5,
		MaliciousNodes:      .1,
		TrustedNodes:        0,
		Duration:            100 * time.Second,
		WaitConfirmations:   time.Second,
		GenerationInterval:  3 * time.Second,
		ValidationMode:      validation.AbsoluteMode,
		WeightFunction:      validation.Linear,
		ConfirmationThr:     1,
		FalseIncidentThr:    1,
		ReputationThr:       .9,
		GeneratedIncWeight:  2,
		LinkProbability:     .2,
		FirestoreCollection: "reputations",
	}
}

type setter func(p *Parameters, value string) error

var setters = map[string]setter{
	"nodeNum":                 intSetter(func(p *Parameters) *int { return &p.NodeNum }),
	"selfishNodes":            floatSetter(func(p *Parameters) *float64 { return &p.SelfishNodes }),
	"altruisticNodes":         floatSetter(func(p *Parameters) *float64 { return &p.AltruisticNodes }),
	"maliciousNodes":          floatSetter(func(p *Parameters) *float64 { return &p.MaliciousNodes }),
	"trustedNodes":            floatSetter(func(p *Parameters) *float64 { return &p.TrustedNodes }),
	"initialValidIncidents":   floatSetter(func(p *Parameters) *float64 { return &p.InitialValidIncidents }),
	"initialInvalidIncidents": floatSetter(func(p *Parameters) *float64 { return &p.InitialInvalidIncidents }),
	"duration":                secondsSetter(func(p *Parameters) *time.Duration { return &p.Duration }),
	"waitConfirmations":       secondsSetter(func(p *Parameters) *time.Duration { return &p.WaitConfirmations }),
	"generationInterval":      secondsSetter(func(p *Parameters) *time.Duration { return &p.GenerationInterval }),
	"confirmationThr":         floatSetter(func(p *Parameters) *float64 { return &p.ConfirmationThr }),
	"falseIncidentThr":        floatSetter(func(p *Parameters) *float64 { return &p.FalseIncidentThr }),
	"reputationThr":           floatSetter(func(p *Parameters) *float64 { return &p.ReputationThr }),
	"generatedIncWeight":      floatSetter(func(p *Parameters) *float64 { return &p.GeneratedIncWeight }),
	"linkProbability":         floatSetter(func(p *Parameters) *float64 { return &p.LinkProbability }),
	"dropRate":                floatSetter(func(p *Parameters) *float64 { return &p.DropRate }),
	"reputationTraceFile":     stringSetter(func(p *Parameters) *string { return &p.ReputationTraceFile }),
	"eventListFile":           stringSetter(func(p *Parameters) *string { return &p.EventListFile }),
	"topologyFile":            stringSetter(func(p *Parameters) *string { return &p.TopologyFile }),
	"firestoreCredentials":    stringSetter(func(p *Parameters) *string { return &p.FirestoreCredentials }),
	"firestoreCollection":     stringSetter(func(p *Parameters) *string { return &p.FirestoreCollection }),
	"t":                       flagSetter(func(p *Parameters) *bool { return &p.DumpTopology }),
	"log":                     flagSetter(func(p *Parameters) *bool { return &p.Log }),

	"validationMode": func(p *Parameters, value string) error {
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		p.ValidationMode = validation.Mode(v)
		return nil
	},
	"weightFunction": func(p *Parameters, value string) error {
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		p.WeightFunction = validation.WeightFunction(v)
		return nil
	},
	"seed": func(p *Parameters, value string) error {
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		p.Seed = v
		return nil
	},
}

// Keys returns the known keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for key := range setters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Set sets the parameter with the given key. Ignored keys are accepted with
// a warning.
func (p *Parameters) Set(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if _, ignored := ignoredKeys[key]; ignored {
		log.Warn().Msgf("parameter %s is not supported, ignoring it", key)
		return nil
	}

	set, ok := setters[key]
	if !ok {
		return xerrors.Errorf("unknown parameter %q", key)
	}

	err := set(p, value)
	if err != nil {
		return xerrors.Errorf("invalid value %q for %s: %v", value, key, err)
	}

	return nil
}

// Parse reads the parameters from r, starting from the defaults.
func Parse(r io.Reader) (Parameters, error) {
	p := Default()

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if text == "" || strings.Contains(text, CommentMarker) {
			continue
		}

		key, value, found := strings.Cut(text, "=")
		if !found {
			log.Warn().Msgf("line %d has no value, ignoring it: %q", line, text)
			continue
		}

		err := p.Set(key, value)
		if err != nil {
			return p, xerrors.Errorf("line %d: %v", line, err)
		}
	}

	err := scanner.Err()
	if err != nil {
		return p, xerrors.Errorf("failed to read parameters: %v", err)
	}

	return p, nil
}

// Load reads the parameters from a file.
func Load(path string) (Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return Parameters{}, xerrors.Errorf("failed to open parameters: %v", err)
	}
	defer f.Close()

	return Parse(f)
}

// Validate checks that a simulation can run with the parameters.
func (p Parameters) Validate() error {
	if p.NodeNum <= 0 {
		return xerrors.Errorf("nodeNum must be positive: %d", p.NodeNum)
	}

	for name, v := range map[string]float64{
		"selfishNodes":    p.SelfishNodes,
		"altruisticNodes": p.AltruisticNodes,
		"maliciousNodes":  p.MaliciousNodes,
		"trustedNodes":    p.TrustedNodes,
		"linkProbability": p.LinkProbability,
		"dropRate":        p.DropRate,
	} {
		if v < 0 || v > 1 {
			return xerrors.Errorf("%s must be in [0, 1]: %v", name, v)
		}
	}

	if p.SelfishNodes+p.AltruisticNodes+p.MaliciousNodes > 1+1e-9 {
		return xerrors.Errorf("population fractions sum above 1")
	}

	if p.GeneratedIncWeight <= 0 {
		return xerrors.Errorf("generatedIncWeight must be positive: %v", p.GeneratedIncWeight)
	}

	if p.GenerationInterval <= 0 || p.Duration <= 0 {
		return xerrors.Errorf("duration and generationInterval must be positive")
	}

	err := p.Protocol().Validate()
	if err != nil {
		return xerrors.Errorf("invalid protocol: %w", err)
	}

	return nil
}

// Protocol returns the protocol parameters of every node of the simulation.
func (p Parameters) Protocol() peer.ProtocolConfig {
	conf := peer.DefaultProtocol()

	conf.Mode = p.ValidationMode
	conf.WeightFunction = p.WeightFunction
	conf.ConfirmationThreshold = p.ConfirmationThr
	conf.FalseIncidentThreshold = p.FalseIncidentThr
	conf.ReputationThreshold = p.ReputationThr
	conf.GeneratedIncidentWeight = 1
	conf.ConfirmedIncidentWeight = 1 / p.GeneratedIncWeight
	conf.TimerDelay = p.WaitConfirmations

	return conf
}

func intSetter(field func(*Parameters) *int) setter {
	return func(p *Parameters, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*field(p) = v
		return nil
	}
}

func floatSetter(field func(*Parameters) *float64) setter {
	return func(p *Parameters, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*field(p) = v
		return nil
	}
}

// durations are given in seconds
func secondsSetter(field func(*Parameters) *time.Duration) setter {
	return func(p *Parameters, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return xerrors.Errorf("not a duration")
		}
		*field(p) = time.Duration(v * float64(time.Second))
		return nil
	}
}

func stringSetter(field func(*Parameters) *string) setter {
	return func(p *Parameters, value string) error {
		*field(p) = value
		return nil
	}
}

// flags are given as 0 or 1
func flagSetter(field func(*Parameters) *bool) setter {
	return func(p *Parameters, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*field(p) = v == 1
		return nil
	}
}
