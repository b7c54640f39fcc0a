package datastructures

// Return a slice of elements that satisfy the predicate
func Filter[T any](slice []T, predicate func(t T) bool) []T {
	res := make([]T, 0)
	for _, elem := range slice {
		if predicate(elem) {
			res = append(res, elem)
		}
	}
	return res
}

// Return a slice of elements in 'slice' to which we applied 'mapping'
func Map[T any, S any](slice []T, mapping func(t T) S) []S {
	res := make([]S, len(slice))
	for idx, elem := range slice {
		res[idx] = mapping(elem)
	}
	return res
}

// Return a copy of 'slice' with its elements in reverse order
func Reverse[T any](slice []T) []T {
	n := len(slice)
	res := make([]T, n)
	for idx, elem := range slice {
		res[n-1-idx] = elem
	}
	return res
}

// Set structures. Wraps map[T]struct{}
type Set[T comparable] map[T]struct{}

// Creates a new empty set
func EmptySet[T comparable]() Set[T] {
	return make(map[T]struct{})
}

// Add an element to the set
func (s Set[T]) Add(t T) {
	s[t] = struct{}{}
}

// Returns true iff s contains t
func (s Set[T]) Contains(t T) bool {
	_, ok := s[t]
	return ok
}

// Remove element t from set s
func (s Set[T]) Remove(t T) {
	delete(s, t)
}

// Returns the number of elements in the set s
func (s Set[T]) Size() int {
	return len(s)
}

// Returns an array of elements in s, in no particular order
func (s Set[T]) ToArray() []T {
	res := make([]T, 0, s.Size())
	for elem := range s {
		res = append(res, elem)
	}
	return res
}
