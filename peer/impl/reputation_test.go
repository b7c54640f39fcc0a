package impl

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/incidents/peer"
)

func Test_Reputation_Initial_State(t *testing.T) {
	store, err := newReputationStore(newAttributeStore(), peer.Profile{}, nil)
	require.NoError(t, err)

	state, err := store.State()
	require.NoError(t, err)
	require.Equal(t, peer.ReputationState{Valid: 0, Invalid: 0, Reputation: 0.5}, state)

	attrs := newAttributeStore()
	_, err = newReputationStore(attrs, peer.Profile{SelfishProbability: 0.3, InitialValid: 3, InitialInvalid: 1}, nil)
	require.NoError(t, err)

	reputation, err := attrs.GetAttribute(peer.ReputationAttribute)
	require.NoError(t, err)
	require.InDelta(t, 4.0/6.0, reputation, 1e-12)

	selfishness, err := attrs.GetAttribute(peer.SelfishProbAttribute)
	require.NoError(t, err)
	require.Equal(t, 0.3, selfishness)
}

func Test_Reputation_Recompute_Is_Idempotent(t *testing.T) {
	store, err := newReputationStore(newAttributeStore(), peer.Profile{InitialValid: 5, InitialInvalid: 2}, nil)
	require.NoError(t, err)

	before, err := store.State()
	require.NoError(t, err)

	require.NoError(t, store.Recompute())
	require.NoError(t, store.Recompute())

	after, err := store.State()
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.InDelta(t, 6.0/9.0, after.Reputation, 1e-12)
}

func Test_Reputation_Increase_And_Decrease(t *testing.T) {
	store, err := newReputationStore(newAttributeStore(), peer.Profile{}, nil)
	require.NoError(t, err)

	changed, err := store.Increase(2)
	require.NoError(t, err)
	require.True(t, changed)

	state, err := store.State()
	require.NoError(t, err)
	require.Equal(t, 2.0, state.Valid)
	require.InDelta(t, 3.0/4.0, state.Reputation, 1e-12)

	changed, err = store.Decrease()
	require.NoError(t, err)
	require.True(t, changed)

	state, err = store.State()
	require.NoError(t, err)
	require.Equal(t, 1.0, state.Invalid)
	require.InDelta(t, 3.0/5.0, state.Reputation, 1e-12)
}

func Test_Reputation_Trusted_Is_Pinned(t *testing.T) {
	store, err := newReputationStore(newAttributeStore(), peer.Profile{Trusted: true}, nil)
	require.NoError(t, err)

	state, err := store.State()
	require.NoError(t, err)
	require.Equal(t, 1.0, state.Reputation)

	// increase is suppressed at reputation 1
	changed, err := store.Increase(1)
	require.NoError(t, err)
	require.False(t, changed)

	state, err = store.State()
	require.NoError(t, err)
	require.Equal(t, 0.0, state.Valid)

	// the invalid counter moves but the reputation stays
	for i := 0; i < 5; i++ {
		_, err = store.Decrease()
		require.NoError(t, err)
	}

	state, err = store.State()
	require.NoError(t, err)
	require.Equal(t, 5.0, state.Invalid)
	require.Equal(t, 1.0, state.Reputation)
}

func Test_Reputation_Hook(t *testing.T) {
	var changes []peer.ReputationState

	hook := func(before, after peer.ReputationState) {
		changes = append(changes, after)
	}

	store, err := newReputationStore(newAttributeStore(), peer.Profile{}, hook)
	require.NoError(t, err)
	require.Len(t, changes, 0)

	_, err = store.Increase(1)
	require.NoError(t, err)
	_, err = store.Decrease()
	require.NoError(t, err)

	require.Len(t, changes, 2)
	require.Equal(t, 1.0, changes[0].Valid)
	require.Equal(t, 1.0, changes[1].Invalid)
}

func Test_Attributes_Unknown(t *testing.T) {
	attrs := newAttributeStore()

	_, err := attrs.GetAttribute("missing")
	require.Error(t, err)

	require.NoError(t, attrs.SetAttribute("present", 2))
	value, err := attrs.GetAttribute("present")
	require.NoError(t, err)
	require.Equal(t, 2.0, value)
}
