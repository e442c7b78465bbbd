package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/sol/vm"
)

func TestSliceIterator(t *testing.T) {
	it, err := NewIterator(vm.NewArray(vm.Dec(1), vm.Dec(2), vm.Dec(3)))
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, it.Value().String())
	}
	assert.Equal(t, []string{"1", "2", "3"}, got)
	assert.False(t, it.Next())
}

func TestStringIterator(t *testing.T) {
	it, err := NewIterator(vm.StrValue("hé!"))
	require.NoError(t, err)

	var got []vm.Value
	for it.Next() {
		got = append(got, it.Value())
	}
	assert.Equal(t, []vm.Value{vm.StrValue("h"), vm.StrValue("é"), vm.StrValue("!")}, got)
}

func TestEmptyIterator(t *testing.T) {
	it, err := NewIterator(vm.NewArray())
	require.NoError(t, err)
	assert.False(t, it.Next())
}

func TestHostIterator(t *testing.T) {
	l := &vm.List{Items: []vm.Value{vm.StrValue("a"), vm.StrValue("b"), vm.StrValue("c")}}
	it, err := NewIterator(&vm.ObjectValue{Class: "List", Instance: l})
	require.NoError(t, err)

	require.True(t, it.Next())
	assert.Equal(t, vm.StrValue("a"), it.Value())
	// stopping early releases the pulled sequence
	it.Close()
	assert.False(t, it.Next())
}

func TestNotIterable(t *testing.T) {
	_, err := NewIterator(vm.BoolTrue)
	assert.Error(t, err)
	_, err = NewIterator(&vm.ObjectValue{Class: "Stopwatch", Instance: &vm.Stopwatch{}})
	assert.Error(t, err)
}
