// Package cas is a content-addressed store for interned script regions and
// variable snapshots. Keys are farm hashes of an item's tagged msgpack
// encoding, so storing the same item twice yields the same key.
package cas

import (
	"fmt"
	"io"
)

type CAS interface {
	Put(item Hashable) (Hash, error)
	Has(hash Hash) bool
	get(hash Hash) (Hashable, error)
}

type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

type Hashable interface {
	Serde
}

type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// Retrieve loads the item stored under hash as a T. Items may be shared
// with other readers and must not be modified.
func Retrieve[T Hashable](c CAS, hash Hash) (T, error) {
	var t T
	item, err := c.get(hash)
	if err != nil {
		return t, err
	}
	result, ok := item.(T)
	if !ok {
		return t, fmt.Errorf("type mismatch: expected %T, got %T", t, item)
	}
	return result, nil
}
