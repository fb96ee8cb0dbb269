package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTest = errors.New("registry: test error")

func TestInsertThenTakeRoundTrips(t *testing.T) {
	r := New(nil)
	slot := NewSlot()
	r.Insert(1, slot)
	require.Equal(t, 1, r.Len())

	got, ok := r.Take(1)
	require.True(t, ok)
	require.Same(t, slot, got)
	require.Equal(t, 0, r.Len())
}

func TestTakeMissingReturnsFalse(t *testing.T) {
	r := New(nil)
	_, ok := r.Take(42)
	require.False(t, ok)
}

func TestRemoveAfterSendFailureLeavesNoEntry(t *testing.T) {
	r := New(nil)
	slot := NewSlot()
	r.Insert(1, slot)
	slot.Resolve(Result{Err: errTest})
	r.Remove(1)

	_, ok := r.Take(1)
	require.False(t, ok)
}

func TestDoubleInsertOverwritesButDoesNotPanic(t *testing.T) {
	r := New(nil)
	first := NewSlot()
	second := NewSlot()
	r.Insert(9, first)
	r.Insert(9, second)

	got, ok := r.Take(9)
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestTakeAllDrainsRegistry(t *testing.T) {
	r := New(nil)
	r.Insert(1, NewSlot())
	r.Insert(2, NewSlot())

	slots := r.TakeAll()
	require.Len(t, slots, 2)
	require.Equal(t, 0, r.Len())
}

func TestSlotResolveOnlyOnce(t *testing.T) {
	s := NewSlot()
	s.Resolve(Result{Value: 1})
	s.Resolve(Result{Value: 2})

	got := <-s.Future()
	require.Equal(t, 1, got.Value)
}
