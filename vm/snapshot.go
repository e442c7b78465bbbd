package vm

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/shamaton/msgpack/v2"
)

// Record is the serialisable form of a Value. Host objects and futures
// are recorded by their text and restore as strings.
type Record struct {
	Kind  string
	Text  string
	Items []Record
}

// Snapshot captures the variables visible to a frame at one moment.
type Snapshot struct {
	Vars map[string]Record
}

func NewSnapshot(vars map[string]Value) *Snapshot {
	s := &Snapshot{Vars: make(map[string]Record, len(vars))}
	for k, v := range vars {
		s.Vars[k] = ToRecord(v)
	}
	return s
}

func (s *Snapshot) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s)
}

func (s *Snapshot) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, s)
}

// Names returns the variable names in sorted order.
func (s *Snapshot) Names() []string {
	return slices.Sorted(maps.Keys(s.Vars))
}

// Values restores the recorded variables.
func (s *Snapshot) Values() (map[string]Value, error) {
	out := make(map[string]Value, len(s.Vars))
	for k, r := range s.Vars {
		v, err := r.Value()
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func ToRecord(v Value) Record {
	switch v := v.(type) {
	case DecimalValue:
		return Record{Kind: "number", Text: v.String()}
	case BoolValue:
		return Record{Kind: "bool", Text: v.String()}
	case StrValue:
		return Record{Kind: "string", Text: string(v)}
	case NoneValue, nil:
		return Record{Kind: "none"}
	case *ArrayValue:
		items := make([]Record, len(v.Elems))
		for i, e := range v.Elems {
			items[i] = ToRecord(e)
		}
		return Record{Kind: "list", Items: items}
	default:
		return Record{Kind: "opaque", Text: v.String()}
	}
}

func (r Record) Value() (Value, error) {
	switch r.Kind {
	case "number":
		return ParseDecimal(r.Text)
	case "bool":
		return BoolValue(r.Text == "true"), nil
	case "string", "opaque":
		return StrValue(r.Text), nil
	case "none":
		return None, nil
	case "list":
		elems := make([]Value, len(r.Items))
		for i, item := range r.Items {
			v, err := item.Value()
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return NewArray(elems...), nil
	}
	return nil, fmt.Errorf("unknown record kind %q", r.Kind)
}
