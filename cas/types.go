package cas

import (
	"bytes"
	"fmt"
	"io"

	"github.com/shamaton/msgpack/v2"
	"github.com/timewinder-dev/sol/vm"
)

// TypedEntry wraps an encoded item with the tag needed to decode it.
type TypedEntry struct {
	TypeTag string
	Data    []byte
}

func (t *TypedEntry) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, t)
}

func (t *TypedEntry) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, t)
}

var constructors = map[string]func() Hashable{
	"Region":   func() Hashable { return &Region{} },
	"Snapshot": func() Hashable { return &vm.Snapshot{} },
}

func typeTag(item Hashable) (string, error) {
	switch item.(type) {
	case *Region:
		return "Region", nil
	case *vm.Snapshot:
		return "Snapshot", nil
	}
	return "", fmt.Errorf("cannot store %T", item)
}

func encode(item Hashable) ([]byte, error) {
	tag, err := typeTag(item)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := item.Serialize(&body); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := (&TypedEntry{TypeTag: tag, Data: body.Bytes()}).Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (Hashable, error) {
	var entry TypedEntry
	if err := entry.Deserialize(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserializing TypedEntry: %w", err)
	}
	mk, ok := constructors[entry.TypeTag]
	if !ok {
		return nil, fmt.Errorf("unknown type tag: %s", entry.TypeTag)
	}
	item := mk()
	if err := item.Deserialize(bytes.NewReader(entry.Data)); err != nil {
		return nil, fmt.Errorf("deserializing %s: %w", entry.TypeTag, err)
	}
	return item, nil
}
