package interp

import (
	"fmt"

	"github.com/timewinder-dev/sol/vm"
)

// State is where a Frame is in its current execution cycle.
type State int

const (
	Reset State = iota
	Running
	Completed
	Broken   // stopped by break
	Returned // stopped by return
	Faulted
)

func (s State) String() string {
	switch s {
	case Reset:
		return "Reset"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Broken:
		return "Broken"
	case Returned:
		return "Returned"
	case Faulted:
		return "Faulted"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// cell holds one variable binding. Global views share cells with the
// frame that owns the binding, so writes through a view land in the owner.
type cell struct {
	v vm.Value
}

type compOp int

const (
	opLess compOp = 1 << iota
	opGreater
	opNot
	opEqual
)

func (o compOp) has(bits compOp) bool {
	return o&bits == bits
}
