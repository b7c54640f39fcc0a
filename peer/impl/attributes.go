package impl

import (
	"go.dedis.ch/incidents/datastructures/concurrent"
	"golang.org/x/xerrors"
)

// attributeStore keeps the attributes of a node in memory.
//
// - implements peer.AttributeStore
type attributeStore struct {
	values *concurrent.Map[string, float64]
}

func newAttributeStore() *attributeStore {
	return &attributeStore{
		values: concurrent.NewMap[string, float64](),
	}
}

// GetAttribute implements peer.AttributeStore
func (s *attributeStore) GetAttribute(name string) (float64, error) {
	value, ok := s.values.Get(name)
	if !ok {
		return 0, xerrors.Errorf("unknown attribute %q", name)
	}
	return value, nil
}

// SetAttribute implements peer.AttributeStore
func (s *attributeStore) SetAttribute(name string, value float64) error {
	s.values.Set(name, value)
	return nil
}
