package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
)

// defaultHost is the host-extension table. Unlike builtins these are looked
// up by name alone, after user functions.
func defaultHost(out io.Writer) map[string]Native {
	writeLine := func(_ context.Context, args []Value) (Value, error) {
		_, err := fmt.Fprintln(out, args[0].String())
		return None, err
	}
	return map[string]Native{
		"Log":           {Params: []Kind{Any}, Fn: writeLine},
		"SendCheatCode": {Params: []Kind{String}, Fn: writeLine},
		"RandomRange":   {Params: []Kind{Int, Int}, Fn: hostRandomRange},
		"Random":        {Params: []Kind{Any}, Fn: hostRandom},
	}
}

// hostRandomRange returns an integer in [min, max).
func hostRandomRange(_ context.Context, args []Value) (Value, error) {
	lo, err := AsInt(args[0])
	if err != nil {
		return nil, err
	}
	hi, err := AsInt(args[1])
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, fmt.Errorf("RandomRange: min %d is greater than max %d", lo, hi)
	}
	if lo == hi {
		return Dec(int64(lo)), nil
	}
	return Dec(int64(lo + rand.IntN(hi-lo))), nil
}

func hostRandom(_ context.Context, args []Value) (Value, error) {
	var elems []Value
	switch v := args[0].(type) {
	case *ArrayValue:
		elems = v.Elems
	case *ObjectValue:
		l, ok := v.Instance.(*List)
		if !ok {
			return nil, fmt.Errorf("Random: cannot pick from %s", v.Class)
		}
		elems = l.Items
	default:
		return nil, fmt.Errorf("Random: cannot pick from %s", TypeName(v))
	}
	if len(elems) == 0 {
		return nil, errors.New("Random: empty list")
	}
	return elems[rand.IntN(len(elems))], nil
}
