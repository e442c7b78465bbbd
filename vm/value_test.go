package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) DecimalValue {
	t.Helper()
	d, err := ParseDecimal(s)
	require.NoError(t, err)
	return d
}

func TestDecimalIsExact(t *testing.T) {
	sum := DecimalValue{dec(t, "0.1").Add(dec(t, "0.2").Decimal)}
	assert.True(t, Equal(dec(t, "0.3"), sum))
	assert.Equal(t, "0.3", sum.String())
}

func TestDecimalKeepsScale(t *testing.T) {
	assert.Equal(t, "1.50", dec(t, "1.50").String())
	assert.Equal(t, "2.50", DecimalValue{dec(t, "1.50").Add(Dec(1).Decimal)}.String())
	assert.Equal(t, "1000", dec(t, "1e3").String())

	assert.Equal(t, "2.5", Quotient(Dec(10), Dec(4), 28).String())
	assert.Equal(t, "1.00", Quotient(dec(t, "1.00"), Dec(1), 28).String())
	assert.Equal(t, "0.3333333333333333333333333333", Quotient(Dec(1), Dec(3), 28).String())
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		kind Kind
		in   Value
		want Value
	}{
		{Int, dec(t, "2.5"), Dec(2)},
		{Int, dec(t, "3.5"), Dec(4)},
		{Int, StrValue(" 42 "), Dec(42)},
		{Int, BoolTrue, Dec(1)},
		{Number, StrValue("1.25"), dec(t, "1.25")},
		{Bool, StrValue("True"), BoolTrue},
		{Bool, Dec(0), BoolFalse},
		{Char, Dec(65), StrValue("A")},
		{Char, StrValue("x"), StrValue("x")},
		{String, Dec(7), StrValue("7")},
		{String, None, StrValue("")},
	}
	for _, tc := range cases {
		got, err := Coerce(tc.kind, tc.in)
		require.NoError(t, err, "%s <- %v", tc.kind, tc.in)
		assert.True(t, Equal(tc.want, got), "%s <- %v: got %v", tc.kind, tc.in, got)
	}
}

func TestCoerceFailures(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		in   Value
	}{
		{Int, StrValue("1.5")},
		{Bool, StrValue("yes")},
		{Char, StrValue("ab")},
		{Number, NewArray()},
	} {
		_, err := Coerce(tc.kind, tc.in)
		assert.ErrorIs(t, err, ErrCoerce, "%s <- %v", tc.kind, tc.in)
	}
}

func TestCoerceChars(t *testing.T) {
	v, err := Coerce(Chars, StrValue("z"))
	require.NoError(t, err)
	assert.Equal(t, "{z}", v.String())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(StrValue("a"), StrValue("a")))
	assert.False(t, Equal(StrValue("1"), Dec(1)))
	assert.True(t, Equal(None, None))
	assert.True(t, Equal(NewArray(Dec(1), StrValue("x")), NewArray(dec(t, "1.0"), StrValue("x"))))
	assert.False(t, Equal(BoolTrue, StrValue("true")))
}

func TestFromGo(t *testing.T) {
	assert.True(t, Equal(Dec(3), FromGo(3)))
	assert.True(t, Equal(dec(t, "1.5"), FromGo(1.5)))
	assert.Equal(t, None, FromGo(nil))
	assert.Equal(t, "{1, a}", FromGo([]any{1, "a"}).String())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewSnapshot(map[string]Value{
		"n":    dec(t, "12.50"),
		"s":    StrValue("text"),
		"list": NewArray(Dec(1), NewArray(BoolTrue)),
		"nil":  None,
	})
	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf))

	var back Snapshot
	require.NoError(t, back.Deserialize(&buf))
	assert.Equal(t, []string{"list", "n", "nil", "s"}, back.Names())

	vals, err := back.Values()
	require.NoError(t, err)
	assert.True(t, Equal(dec(t, "12.5"), vals["n"]))
	assert.Equal(t, "{1, {true}}", vals["list"].String())
	assert.Equal(t, None, vals["nil"])
}
