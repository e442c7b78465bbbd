package vm

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinLookupIsByArity(t *testing.T) {
	n := NewNatives(nil)
	assert.True(t, n.IsBuiltin("Delay/1"))
	assert.False(t, n.IsBuiltin("Delay/2"))
	assert.False(t, n.IsBuiltin("Delay1"))
}

func TestDelayReturnsFuture(t *testing.T) {
	n := NewNatives(nil)
	v, err := n.CallBuiltin(context.Background(), "Delay/1", []Value{Dec(5)})
	require.NoError(t, err)
	f, ok := v.(*FutureValue)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, None, res)
	assert.True(t, f.Ready())
}

func TestHostLog(t *testing.T) {
	var out bytes.Buffer
	n := NewNatives(&out)
	v, found, err := n.CallHost(context.Background(), "Log", []Value{StrValue("hi")})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, None, v)
	assert.Equal(t, "hi\n", out.String())

	_, found, err = n.CallHost(context.Background(), "Nope", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHostArgumentCoercion(t *testing.T) {
	n := NewNatives(nil)
	v, _, err := n.CallHost(context.Background(), "RandomRange", []Value{StrValue("4"), Dec(5)})
	require.NoError(t, err)
	assert.True(t, Equal(Dec(4), v))

	_, _, err = n.CallHost(context.Background(), "RandomRange", []Value{StrValue("four"), Dec(5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCoerce))
}

func TestRandomRangeRejectsNonInteger(t *testing.T) {
	_, err := hostRandomRange(context.Background(), []Value{StrValue("x"), Dec(2)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCoerce)

	v, err := hostRandomRange(context.Background(), []Value{Dec(3), Dec(3)})
	require.NoError(t, err)
	assert.True(t, Equal(Dec(3), v))
}

func TestConstructAndInvoke(t *testing.T) {
	ctx := context.Background()
	n := NewNatives(nil)
	obj, err := n.Construct(ctx, "List", nil)
	require.NoError(t, err)

	_, err = n.Invoke(ctx, obj, "Add", []Value{Dec(1)})
	require.NoError(t, err)
	_, err = n.Invoke(ctx, obj, "Add", []Value{StrValue("two")})
	require.NoError(t, err)

	count, err := n.Invoke(ctx, obj, "Count", nil)
	require.NoError(t, err)
	assert.True(t, Equal(Dec(2), count))

	got, err := n.Invoke(ctx, obj, "Get", []Value{Dec(1)})
	require.NoError(t, err)
	assert.Equal(t, StrValue("two"), got)
	assert.Equal(t, "{1, two}", obj.String())
}

func TestConstructOverloads(t *testing.T) {
	ctx := context.Background()
	n := NewNatives(nil)
	obj, err := n.Construct(ctx, "List", []Value{NewArray(Dec(1), Dec(2))})
	require.NoError(t, err)
	assert.Equal(t, 2, obj.(*ObjectValue).Instance.(*List).Len())

	_, err = n.Construct(ctx, "List", []Value{Dec(1), Dec(2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNotFoundSuggestions(t *testing.T) {
	ctx := context.Background()
	n := NewNatives(nil)
	_, err := n.Construct(ctx, "Stopwtch", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean Stopwatch?")

	_, err = n.Invoke(ctx, StrValue("abc"), "ToUpr", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "did you mean ToUpper?")
}

func TestStringMethods(t *testing.T) {
	ctx := context.Background()
	n := NewNatives(nil)
	s := StrValue("hello world")

	v, err := n.Invoke(ctx, s, "Substring", []Value{Dec(6)})
	require.NoError(t, err)
	assert.Equal(t, StrValue("world"), v)

	v, err = n.Invoke(ctx, s, "Substring", []Value{Dec(0), Dec(5)})
	require.NoError(t, err)
	assert.Equal(t, StrValue("hello"), v)

	v, err = n.Invoke(ctx, s, "Split", []Value{StrValue(" ")})
	require.NoError(t, err)
	assert.Equal(t, "{hello, world}", v.String())
}

func TestArraysShareMutation(t *testing.T) {
	ctx := context.Background()
	n := NewNatives(nil)
	arr := NewArray()
	alias := Value(arr)
	_, err := n.Invoke(ctx, arr, "Add", []Value{BoolTrue})
	require.NoError(t, err)
	assert.Len(t, alias.(*ArrayValue).Elems, 1)
}

func TestRegisterHostOverridesDefault(t *testing.T) {
	n := NewNatives(nil)
	n.RegisterHost("Log", Native{Params: []Kind{Any}, Fn: func(_ context.Context, args []Value) (Value, error) {
		return StrValue("custom " + args[0].String()), nil
	}})
	v, found, err := n.CallHost(context.Background(), "Log", []Value{Dec(3)})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StrValue("custom 3"), v)
	assert.Contains(t, n.HostNames(), "Random")
}
