package validation

import (
	"math"
	"strconv"

	"golang.org/x/xerrors"
)

// ErrUnknownMode is returned when validating with a mode that does not exist.
var ErrUnknownMode = xerrors.New("unknown validation mode")

// Decision is the outcome of the validation of a round.
type Decision int

const (
	DoNothing          Decision = 0
	IncreaseReputation Decision = 1
	DecreaseReputation Decision = -1
)

func (d Decision) String() string {
	switch d {
	case IncreaseReputation:
		return "INCREASE_REP"
	case DecreaseReputation:
		return "DECREASE_REP"
	default:
		return "DO_NOTHING"
	}
}

// Mode selects how a round is turned into a decision.
type Mode uint32

const (
	// AbsoluteMode compares the number of confirmations to fixed thresholds.
	AbsoluteMode Mode = 0
	// DensityMode scales the thresholds by the number of neighbours that
	// replied.
	DensityMode Mode = 1
	// WeightMode sums the weights of the confirmers' reputations.
	WeightMode Mode = 2
)

// Known returns true if the mode is implemented.
func (m Mode) Known() bool {
	return m == AbsoluteMode || m == DensityMode || m == WeightMode
}

func (m Mode) String() string {
	switch m {
	case AbsoluteMode:
		return "absolute"
	case DensityMode:
		return "density"
	case WeightMode:
		return "weight"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

// Validator turns the confirmations of a round into a decision.
type Validator struct {
	Mode   Mode
	Weight WeightFunction

	ConfirmationThreshold  float64
	FalseIncidentThreshold float64
	ReputationThreshold    float64
}

// Verdict is a decision together with the figures it was taken on.
type Verdict struct {
	Decision Decision

	// Required and Floor are the increase and decrease bounds. In weight
	// mode they are the raw thresholds.
	Required float64
	Floor    float64

	Confirmations int
	Neighbours    int
	// Weight is only computed in weight mode.
	Weight float64
}

// Validate decides on the round. ownReputation is only used in weight mode.
func (v Validator) Validate(round *Round, ownReputation float64) (Verdict, error) {
	verdict := Verdict{
		Confirmations: len(round.Confirmations),
		Neighbours:    round.Neighbours.Size(),
	}

	switch v.Mode {
	case AbsoluteMode:
		verdict.Required = math.Floor(v.ConfirmationThreshold)
		verdict.Floor = math.Floor(v.FalseIncidentThreshold)
		verdict.Decision = compare(float64(verdict.Confirmations), verdict.Required, verdict.Floor)

	case DensityMode:
		neighbours := float64(verdict.Neighbours)
		verdict.Required = math.Ceil(neighbours * v.ConfirmationThreshold)
		verdict.Floor = math.Ceil(neighbours * v.FalseIncidentThreshold)
		verdict.Decision = compare(float64(verdict.Confirmations), verdict.Required, verdict.Floor)

	case WeightMode:
		verdict.Confirmations = len(round.Reputations)
		verdict.Required = v.ConfirmationThreshold
		verdict.Floor = v.FalseIncidentThreshold
		verdict.Weight = v.weight(round, ownReputation)
		verdict.Decision = compare(verdict.Weight, verdict.Required, verdict.Floor)

	default:
		return verdict, xerrors.Errorf("%d: %w", v.Mode, ErrUnknownMode)
	}

	return verdict, nil
}

func (v Validator) weight(round *Round, ownReputation float64) float64 {
	weight := v.Weight.Weight(ownReputation, v.ReputationThreshold)
	for _, reputation := range round.Reputations {
		weight += v.Weight.Weight(reputation, v.ReputationThreshold)
	}
	return weight
}

// the increase bound is checked first, a value on both bounds increases
func compare(value, required, floor float64) Decision {
	if value >= required {
		return IncreaseReputation
	}
	if value <= floor {
		return DecreaseReputation
	}
	return DoNothing
}
