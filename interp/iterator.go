package interp

import (
	"fmt"
	"iter"

	"github.com/timewinder-dev/sol/vm"
)

// Iterator walks the elements a foreach loop binds.
type Iterator interface {
	// Next advances the iterator and reports whether an element is
	// available.
	Next() bool
	Value() vm.Value
	Close()
}

// NewIterator returns an iterator over a list, the characters of a string,
// or a host object implementing vm.Iterable.
func NewIterator(v vm.Value) (Iterator, error) {
	switch v := v.(type) {
	case *vm.ArrayValue:
		return &SliceIterator{Values: v.Elems, Index: -1}, nil
	case vm.StrValue:
		var chars []vm.Value
		for _, r := range string(v) {
			chars = append(chars, vm.StrValue(string(r)))
		}
		return &SliceIterator{Values: chars, Index: -1}, nil
	case *vm.ObjectValue:
		if it, ok := v.Instance.(vm.Iterable); ok {
			next, stop := iter.Pull(it.All())
			return &SeqIterator{next: next, stop: stop}, nil
		}
	}
	return nil, fmt.Errorf("cannot iterate over %s", vm.TypeName(v))
}

// SliceIterator iterates over a fixed slice of values.
type SliceIterator struct {
	Values []vm.Value
	Index  int // -1 before the first Next
}

func (s *SliceIterator) Next() bool {
	s.Index++
	return s.Index < len(s.Values)
}

func (s *SliceIterator) Value() vm.Value {
	return s.Values[s.Index]
}

func (s *SliceIterator) Close() {}

// SeqIterator pulls from a host sequence.
type SeqIterator struct {
	next func() (vm.Value, bool)
	stop func()
	cur  vm.Value
}

func (s *SeqIterator) Next() bool {
	v, ok := s.next()
	s.cur = v
	return ok
}

func (s *SeqIterator) Value() vm.Value {
	if s.cur == nil {
		return vm.None
	}
	return s.cur
}

func (s *SeqIterator) Close() {
	s.stop()
}
