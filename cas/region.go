package cas

import (
	"io"

	"github.com/shamaton/msgpack/v2"
)

// Region is a slice of script source: a whole file, a block body or a
// loop condition. Identical regions share one entry.
type Region struct {
	File string
	Line int
	Text string
}

func (r *Region) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, r)
}

func (r *Region) Deserialize(rd io.Reader) error {
	return msgpack.UnmarshalRead(rd, r)
}
