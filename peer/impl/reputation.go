package impl

import (
	"sync"

	"go.dedis.ch/incidents/peer"
	"golang.org/x/xerrors"
)

// reputationStore derives the reputation of a node from its valid and
// invalid incident counters. The values live in the node's attribute store.
// The reputation of a trusted node stays at 1 whatever its counters.
type reputationStore struct {
	sync.Mutex

	attributes peer.AttributeStore
	trusted    bool
	onChange   func(before, after peer.ReputationState)
}

func newReputationStore(attributes peer.AttributeStore, profile peer.Profile,
	onChange func(before, after peer.ReputationState)) (*reputationStore, error) {

	s := &reputationStore{
		attributes: attributes,
		trusted:    profile.Trusted,
		onChange:   onChange,
	}

	err := attributes.SetAttribute(peer.SelfishProbAttribute, profile.SelfishProbability)
	if err != nil {
		return nil, xerrors.Errorf("failed to set selfishness: %v", err)
	}

	state := peer.ReputationState{
		Valid:   profile.InitialValid,
		Invalid: profile.InitialInvalid,
	}

	err = s.store(s.recompute(state))
	if err != nil {
		return nil, xerrors.Errorf("failed to init reputation: %v", err)
	}

	return s, nil
}

// State returns the current counters and reputation.
func (s *reputationStore) State() (peer.ReputationState, error) {
	s.Lock()
	defer s.Unlock()

	return s.load()
}

// Increase adds weight to the valid counter and recomputes the reputation,
// unless the reputation is already 1. Returns true if the state changed.
func (s *reputationStore) Increase(weight float64) (bool, error) {
	return s.update(func(state peer.ReputationState) (peer.ReputationState, bool) {
		if state.Reputation == 1 {
			return state, false
		}
		state.Valid += weight
		return s.recompute(state), true
	})
}

// Decrease counts one more invalid incident and recomputes the reputation.
func (s *reputationStore) Decrease() (bool, error) {
	return s.update(func(state peer.ReputationState) (peer.ReputationState, bool) {
		state.Invalid++
		return s.recompute(state), true
	})
}

// Recompute derives the reputation from the stored counters.
func (s *reputationStore) Recompute() error {
	_, err := s.update(func(state peer.ReputationState) (peer.ReputationState, bool) {
		return s.recompute(state), true
	})
	return err
}

func (s *reputationStore) update(
	apply func(peer.ReputationState) (peer.ReputationState, bool)) (bool, error) {

	s.Lock()

	old, err := s.load()
	if err != nil {
		s.Unlock()
		return false, err
	}

	updated, changed := apply(old)
	if !changed {
		s.Unlock()
		return false, nil
	}

	err = s.store(updated)
	s.Unlock()

	if err != nil {
		return false, err
	}

	if s.onChange != nil {
		s.onChange(old, updated)
	}

	return true, nil
}

func (s *reputationStore) recompute(state peer.ReputationState) peer.ReputationState {
	if s.trusted {
		state.Reputation = 1
	} else {
		state.Reputation = peer.SuccessionRule(state.Valid, state.Invalid)
	}
	return state
}

func (s *reputationStore) load() (peer.ReputationState, error) {
	valid, err := s.attributes.GetAttribute(peer.ValidIncidentsAttribute)
	if err != nil {
		return peer.ReputationState{}, xerrors.Errorf("failed to load reputation: %v", err)
	}

	invalid, err := s.attributes.GetAttribute(peer.InvalidIncidentsAttribute)
	if err != nil {
		return peer.ReputationState{}, xerrors.Errorf("failed to load reputation: %v", err)
	}

	reputation, err := s.attributes.GetAttribute(peer.ReputationAttribute)
	if err != nil {
		return peer.ReputationState{}, xerrors.Errorf("failed to load reputation: %v", err)
	}

	return peer.ReputationState{
		Valid:      valid,
		Invalid:    invalid,
		Reputation: reputation,
	}, nil
}

func (s *reputationStore) store(state peer.ReputationState) error {
	err := s.attributes.SetAttribute(peer.ValidIncidentsAttribute, state.Valid)
	if err != nil {
		return xerrors.Errorf("failed to store reputation: %v", err)
	}

	err = s.attributes.SetAttribute(peer.InvalidIncidentsAttribute, state.Invalid)
	if err != nil {
		return xerrors.Errorf("failed to store reputation: %v", err)
	}

	err = s.attributes.SetAttribute(peer.ReputationAttribute, state.Reputation)
	if err != nil {
		return xerrors.Errorf("failed to store reputation: %v", err)
	}

	return nil
}
