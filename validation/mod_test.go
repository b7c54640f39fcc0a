package validation

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundWith(confirmations int, neighbours int) *Round {
	round := NewRound("test")
	for i := 0; i < neighbours; i++ {
		round.SawNeighbour(fmt.Sprintf("10.0.0.%d:8089", i))
	}
	for i := 0; i < confirmations; i++ {
		round.Accept(Confirmation{Peer: fmt.Sprintf("10.0.0.%d:8089", i), Reputation: 0.5}, 0.9)
	}
	return round
}

func Test_Absolute_Mode_Boundaries(t *testing.T) {
	v := Validator{
		Mode:                   AbsoluteMode,
		ConfirmationThreshold:  3,
		FalseIncidentThreshold: 1,
	}

	expected := map[int]Decision{
		0: DecreaseReputation,
		1: DecreaseReputation,
		2: DoNothing,
		3: IncreaseReputation,
		4: IncreaseReputation,
	}

	for n, decision := range expected {
		verdict, err := v.Validate(roundWith(n, n), 0.5)
		require.NoError(t, err)
		require.Equal(t, decision, verdict.Decision, "confirmations: %d", n)
		require.Equal(t, 3.0, verdict.Required)
		require.Equal(t, 1.0, verdict.Floor)
	}
}

func Test_Absolute_Mode_Floors_Thresholds(t *testing.T) {
	v := Validator{
		Mode:                   AbsoluteMode,
		ConfirmationThreshold:  2.9,
		FalseIncidentThreshold: 0.7,
	}

	verdict, err := v.Validate(roundWith(2, 2), 0.5)
	require.NoError(t, err)
	require.Equal(t, IncreaseReputation, verdict.Decision)

	verdict, err = v.Validate(roundWith(0, 0), 0.5)
	require.NoError(t, err)
	require.Equal(t, DecreaseReputation, verdict.Decision)

	verdict, err = v.Validate(roundWith(1, 1), 0.5)
	require.NoError(t, err)
	require.Equal(t, DoNothing, verdict.Decision)
}

func Test_Zero_Confirmations_Decrease_On_Zero_Floor(t *testing.T) {
	v := Validator{
		Mode:                   AbsoluteMode,
		ConfirmationThreshold:  1,
		FalseIncidentThreshold: 0,
	}

	verdict, err := v.Validate(NewRound("empty"), 0.5)
	require.NoError(t, err)
	require.Equal(t, DecreaseReputation, verdict.Decision)
}

func Test_Density_Mode_Scales_With_Neighbours(t *testing.T) {
	v := Validator{
		Mode:                   DensityMode,
		ConfirmationThreshold:  0.5,
		FalseIncidentThreshold: 0.2,
	}

	verdict, err := v.Validate(roundWith(5, 10), 0.5)
	require.NoError(t, err)
	require.Equal(t, IncreaseReputation, verdict.Decision)
	require.Equal(t, 5.0, verdict.Required)
	require.Equal(t, 2.0, verdict.Floor)
	require.Equal(t, 10, verdict.Neighbours)

	verdict, err = v.Validate(roundWith(4, 10), 0.5)
	require.NoError(t, err)
	require.Equal(t, DoNothing, verdict.Decision)

	verdict, err = v.Validate(roundWith(2, 10), 0.5)
	require.NoError(t, err)
	require.Equal(t, DecreaseReputation, verdict.Decision)
}

func Test_Density_Mode_Without_Neighbours(t *testing.T) {
	v := Validator{
		Mode:                   DensityMode,
		ConfirmationThreshold:  0.5,
		FalseIncidentThreshold: 0.2,
	}

	// both bounds are 0, the increase bound is checked first
	verdict, err := v.Validate(NewRound("empty"), 0.5)
	require.NoError(t, err)
	require.Equal(t, IncreaseReputation, verdict.Decision)
}

func Test_Density_Mode_Counts_Each_Neighbour_Once(t *testing.T) {
	round := NewRound("dup")
	round.SawNeighbour("a")
	round.SawNeighbour("a")
	round.SawNeighbour("b")

	v := Validator{Mode: DensityMode, ConfirmationThreshold: 1, FalseIncidentThreshold: 0.5}
	verdict, err := v.Validate(round, 0.5)
	require.NoError(t, err)
	require.Equal(t, 2, verdict.Neighbours)
	require.Equal(t, 2.0, verdict.Required)
	require.Equal(t, 1.0, verdict.Floor)
	require.Equal(t, DecreaseReputation, verdict.Decision)
}

func Test_Weight_Mode_Linear(t *testing.T) {
	round := NewRound("weight")
	round.SawNeighbour("a")
	round.Accept(Confirmation{Peer: "a", Reputation: 0.9}, 0.9)

	v := Validator{
		Mode:                   WeightMode,
		Weight:                 Linear,
		ConfirmationThreshold:  1.5,
		FalseIncidentThreshold: 0.5,
		ReputationThreshold:    0.9,
	}

	verdict, err := v.Validate(round, 0.9)
	require.NoError(t, err)
	require.InDelta(t, 2.0, verdict.Weight, 1e-12)
	require.Equal(t, IncreaseReputation, verdict.Decision)
}

func Test_Weight_Mode_Collapses_Duplicate_Confirmers(t *testing.T) {
	round := NewRound("weight")
	round.Accept(Confirmation{Peer: "a", Reputation: 0.5}, 0.9)
	round.Accept(Confirmation{Peer: "a", Reputation: 1}, 0.9)

	require.Len(t, round.Confirmations, 2)
	require.Len(t, round.Reputations, 1)
	require.Equal(t, 0.5, round.Reputations["a"])
	require.True(t, round.HighReputationConfirmer)

	v := Validator{
		Mode:                   WeightMode,
		Weight:                 Quadratic,
		ConfirmationThreshold:  1,
		FalseIncidentThreshold: 0.3,
		ReputationThreshold:    0.9,
	}

	verdict, err := v.Validate(round, 0.5)
	require.NoError(t, err)
	require.InDelta(t, 0.5, verdict.Weight, 1e-12)
	require.Equal(t, 1, verdict.Confirmations)
	require.Equal(t, DoNothing, verdict.Decision)
}

func Test_Weight_Mode_Unknown_Function_Weighs_Nothing(t *testing.T) {
	round := roundWith(10, 10)

	v := Validator{
		Mode:                   WeightMode,
		Weight:                 WeightFunction(24),
		ConfirmationThreshold:  1,
		FalseIncidentThreshold: 0,
		ReputationThreshold:    0.9,
	}

	verdict, err := v.Validate(round, 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, verdict.Weight)
	require.Equal(t, DecreaseReputation, verdict.Decision)
}

func Test_Unknown_Mode_Fails(t *testing.T) {
	v := Validator{Mode: Mode(7)}

	_, err := v.Validate(NewRound("x"), 0.5)
	require.ErrorIs(t, err, ErrUnknownMode)
}

func Test_Weight_Functions(t *testing.T) {
	require.InDelta(t, 1.0, Linear.Weight(0.9, 0.9), 1e-12)
	require.InDelta(t, 0.5, Linear.Weight(0.45, 0.9), 1e-12)
	require.InDelta(t, 1.0, Exponential.Weight(0.9, 0.9), 1e-12)
	require.InDelta(t, math.Exp(-2), Exponential.Weight(0.4, 0.9), 1e-12)
	require.InDelta(t, 0.25, Quadratic.Weight(0.5, 0.9), 1e-12)
	require.Equal(t, 0.0, WeightFunction(0).Weight(0.5, 0.9))

	require.True(t, Linear.Known())
	require.False(t, WeightFunction(24).Known())
}

func Test_Confirmers_Most_Recent_First(t *testing.T) {
	round := NewRound("order")
	for _, peer := range []string{"A", "B", "C"} {
		round.Accept(Confirmation{Peer: peer, Reputation: 0.5}, 0.9)
	}

	require.Equal(t, []string{"C", "B", "A"}, round.Confirmers())
	require.False(t, round.HighReputationConfirmer)
}
