package storage

import "fmt"

// Array is a persistent dynamic array. The zero value is an empty array.
//
// Mutating methods return a new Array and never modify the receiver. Slots
// are held behind shared pointers, so a Set copies the slot table but shares
// every untouched element with the source version, and old handles remain
// valid indefinitely.
type Array[T any] struct {
	slots []*T
}

// NewArray returns an empty Array.
func NewArray[T any]() Array[T] {
	return Array[T]{}
}

// NewArrayFilled returns an Array of length n in which every slot shares a
// single copy of element.
func NewArrayFilled[T any](n int, element T) Array[T] {
	shared := &element
	slots := make([]*T, n)
	for i := range slots {
		slots[i] = shared
	}
	return Array[T]{slots: slots}
}

// Len returns the number of slots.
func (a Array[T]) Len() int {
	return len(a.slots)
}

// Get returns the element at index i.
//
// Indexing out of range is a precondition violation and panics; callers
// that want defaulting reads layer them on top (see Matrix and Volume).
func (a Array[T]) Get(i int) T {
	a.check(i)
	return *a.slots[i]
}

// Set returns a new Array with slot i holding element. Every other slot is
// shared with the receiver. Panics if i is out of range.
func (a Array[T]) Set(i int, element T) Array[T] {
	a.check(i)
	slots := make([]*T, len(a.slots))
	copy(slots, a.slots)
	slots[i] = &element
	return Array[T]{slots: slots}
}

// PushBack returns a new Array with element appended, sharing the whole
// prefix with the receiver.
func (a Array[T]) PushBack(element T) Array[T] {
	slots := make([]*T, len(a.slots)+1)
	copy(slots, a.slots)
	slots[len(a.slots)] = &element
	return Array[T]{slots: slots}
}

// SharesSlot reports whether slot i of a and other are backed by the same
// element. Used to verify structural sharing across versions.
func (a Array[T]) SharesSlot(other Array[T], i int) bool {
	a.check(i)
	other.check(i)
	return a.slots[i] == other.slots[i]
}

func (a Array[T]) check(i int) {
	if i < 0 || i >= len(a.slots) {
		panic(fmt.Sprintf("storage: array index %d out of range [0,%d)", i, len(a.slots)))
	}
}
