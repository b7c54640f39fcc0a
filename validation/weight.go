package validation

import (
	"math"
	"strconv"
)

// WeightFunction maps a confirmer's reputation to the weight of its vote in
// the weight mode.
type WeightFunction uint32

const (
	// Linear weighs r/threshold.
	Linear WeightFunction = 21
	// Exponential weighs e^(4(r-threshold)).
	Exponential WeightFunction = 22
	// Quadratic weighs r².
	Quadratic WeightFunction = 23
)

// Known returns true if the selector is one of the implemented functions.
func (f WeightFunction) Known() bool {
	switch f {
	case Linear, Exponential, Quadratic:
		return true
	default:
		return false
	}
}

// Weight returns the vote weight of the reputation. An unknown selector
// weighs 0.
func (f WeightFunction) Weight(reputation, reputationThreshold float64) float64 {
	switch f {
	case Linear:
		return reputation / reputationThreshold
	case Exponential:
		return math.Exp(4 * (reputation - reputationThreshold))
	case Quadratic:
		return reputation * reputation
	default:
		return 0
	}
}

func (f WeightFunction) String() string {
	switch f {
	case Linear:
		return "linear"
	case Exponential:
		return "exponential"
	case Quadratic:
		return "quadratic"
	default:
		return "unknown(" + strconv.Itoa(int(f)) + ")"
	}
}
