package vm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Method is one overload of a method. Self is the host instance for
// objects, or the receiver Value itself for primitive kinds.
type Method struct {
	Params []Kind
	Fn     func(ctx context.Context, self any, args []Value) (Value, error)
}

// MethodTable maps method names to their overloads.
type MethodTable map[string][]Method

// valueMethods holds the method tables of the primitive kinds, keyed by
// TypeName.
func valueMethods() map[string]MethodTable {
	return map[string]MethodTable{
		"string": {
			"Length":    {{Fn: strLength}},
			"ToUpper":   {{Fn: strMap(strings.ToUpper)}},
			"ToLower":   {{Fn: strMap(strings.ToLower)}},
			"Trim":      {{Fn: strMap(strings.TrimSpace)}},
			"Contains":  {{Params: []Kind{String}, Fn: strContains}},
			"Split":     {{Params: []Kind{String}, Fn: strSplit}},
			"Substring": {{Params: []Kind{Int}, Fn: strSubstring}, {Params: []Kind{Int, Int}, Fn: strSubstring}},
		},
		"list": {
			"Count": {{Fn: arrayCount}},
			"Add":   {{Params: []Kind{Any}, Fn: arrayAdd}},
			"Get":   {{Params: []Kind{Int}, Fn: arrayGet}},
		},
	}
}

func strLength(_ context.Context, self any, _ []Value) (Value, error) {
	return Dec(int64(utf8.RuneCountInString(string(self.(StrValue))))), nil
}

func strMap(fn func(string) string) func(context.Context, any, []Value) (Value, error) {
	return func(_ context.Context, self any, _ []Value) (Value, error) {
		return StrValue(fn(string(self.(StrValue)))), nil
	}
}

func strContains(_ context.Context, self any, args []Value) (Value, error) {
	return BoolValue(strings.Contains(string(self.(StrValue)), args[0].String())), nil
}

func strSplit(_ context.Context, self any, args []Value) (Value, error) {
	parts := strings.Split(string(self.(StrValue)), args[0].String())
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = StrValue(p)
	}
	return NewArray(out...), nil
}

func strSubstring(_ context.Context, self any, args []Value) (Value, error) {
	runes := []rune(string(self.(StrValue)))
	start, _ := AsInt(args[0])
	end := len(runes)
	if len(args) == 2 {
		n, _ := AsInt(args[1])
		end = start + n
	}
	if start < 0 || start > len(runes) || end < start || end > len(runes) {
		return nil, fmt.Errorf("Substring out of range [%d:%d] for length %d", start, end, len(runes))
	}
	return StrValue(runes[start:end]), nil
}

func arrayCount(_ context.Context, self any, _ []Value) (Value, error) {
	return Dec(int64(len(self.(*ArrayValue).Elems))), nil
}

func arrayAdd(_ context.Context, self any, args []Value) (Value, error) {
	arr := self.(*ArrayValue)
	arr.Elems = append(arr.Elems, args[0])
	return None, nil
}

func arrayGet(_ context.Context, self any, args []Value) (Value, error) {
	elems := self.(*ArrayValue).Elems
	i, _ := AsInt(args[0])
	if i < 0 || i >= len(elems) {
		return nil, fmt.Errorf("index %d out of range for length %d", i, len(elems))
	}
	return elems[i], nil
}
