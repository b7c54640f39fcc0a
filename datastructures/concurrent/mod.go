package concurrent

import (
	"sync"

	"go.dedis.ch/incidents/datastructures"
)

// Thread safe map. Any operation is guaranteed to be thread-safe.
type Map[K comparable, V any] struct {
	sync.RWMutex
	content map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		content: make(map[K]V),
	}
}

// Returns the number of (key, value) pairs in the map.
func (m *Map[K, V]) Len() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.content)
}

// Returns a copy of the content of the map.
func (m *Map[K, V]) Entries() map[K]V {
	m.RLock()
	defer m.RUnlock()

	res := make(map[K]V, len(m.content))
	for k, v := range m.content {
		res[k] = v
	}
	return res
}

// Set an element in the map. If there is already an entry in the map for the
// key the entry is replaced with the new value.
func (m *Map[K, V]) Set(key K, value V) {
	m.Lock()
	defer m.Unlock()
	m.content[key] = value
}

// Delete an element from the map. If no element is present, it's a no-op.
func (m *Map[K, V]) Delete(key K) {
	m.Lock()
	defer m.Unlock()
	delete(m.content, key)
}

// Get an element from the map. The second value is
// false if the key is not in the map.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.RLock()
	defer m.RUnlock()
	value, ok := m.content[key]
	return value, ok
}

func (m *Map[K, V]) GetOrDefault(key K, defaultValue V) V {
	v, ok := m.Get(key)
	if !ok {
		return defaultValue
	}
	return v
}

// Atomically replaces the value of key by update(old, present).
func (m *Map[K, V]) Update(key K, update func(old V, present bool) V) V {
	m.Lock()
	defer m.Unlock()

	old, ok := m.content[key]
	value := update(old, ok)
	m.content[key] = value
	return value
}

// Warning does not accept self modification
func (m *Map[K, V]) ForEach(consumer func(K, V)) {
	m.RLock()
	defer m.RUnlock()

	for key, value := range m.content {
		consumer(key, value)
	}
}

// Thread-safe set.
type Set[T comparable] struct {
	underlyingMap *Map[T, struct{}]
}

// Returns a new Set.
func NewSet[T comparable]() *Set[T] {
	return &Set[T]{
		underlyingMap: NewMap[T, struct{}](),
	}
}

// Add t to the set.
func (s *Set[T]) Add(t T) {
	s.underlyingMap.Set(t, struct{}{})
}

// Returns true iff the set contains the provided element.
func (s *Set[T]) Contains(t T) bool {
	_, ok := s.underlyingMap.Get(t)
	return ok
}

// Remove element from the set
func (s *Set[T]) Remove(t T) {
	s.underlyingMap.Delete(t)
}

// Returns a snapshot of the set
func (s *Set[T]) Values() datastructures.Set[T] {
	return datastructures.Set[T](s.underlyingMap.Entries())
}

func (s *Set[T]) Size() int {
	return s.underlyingMap.Len()
}
