package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func pendingItem() OrderItem {
	return OrderItem{
		ID:         "item-1",
		Name:       "Margherita",
		Quantity:   1,
		Status:     ItemPending,
		Timestamps: Ledger[ItemStatus]{ItemPending: t0},
	}
}

func walk(t *testing.T, item OrderItem, path ...ItemStatus) OrderItem {
	t.Helper()
	for i, s := range path {
		next, err := TransitionItem(item, s, t0.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
		item = next
	}
	return item
}

func TestTransitionItem_ForwardPath(t *testing.T) {
	item := walk(t, pendingItem(), ItemPreparing, ItemOven, ItemCutting, ItemReadyToServe, ItemDelivered)

	assert.Equal(t, ItemDelivered, item.Status)
	for i, s := range ItemPath {
		at, ok := item.Timestamps.At(s)
		require.True(t, ok, "missing ledger entry for %s", s)
		assert.Equal(t, t0.Add(time.Duration(i)*time.Minute), at)
	}
	require.NotNil(t, item.StartTime)
	assert.Equal(t, t0.Add(time.Minute), *item.StartTime)
}

func TestTransitionItem_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		from   []ItemStatus
		target ItemStatus
	}{
		{name: "skip preparing", target: ItemOven},
		{name: "skip to ready", target: ItemReadyToServe},
		{name: "backward from oven", from: []ItemStatus{ItemPreparing, ItemOven}, target: ItemPreparing},
		{name: "backward to pending", from: []ItemStatus{ItemPreparing}, target: ItemPending},
		{name: "cancel delivered", from: []ItemStatus{ItemPreparing, ItemOven, ItemCutting, ItemReadyToServe, ItemDelivered}, target: ItemCancelled},
		{name: "leave cancelled", from: []ItemStatus{ItemCancelled}, target: ItemPreparing},
		{name: "unknown status", target: ItemStatus("burnt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := walk(t, pendingItem(), tt.from...)
			before := item.Clone()

			got, err := TransitionItem(item, tt.target, t0.Add(time.Hour))

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalTransition))
			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, string(before.Status), te.From)
			assert.Equal(t, string(tt.target), te.To)
			assert.Equal(t, before, got)
			assert.Equal(t, before, item)
		})
	}
}

func TestTransitionItem_ReentryIsNoop(t *testing.T) {
	item := walk(t, pendingItem(), ItemPreparing)
	stamped := item.Timestamps[ItemPreparing]

	again, err := TransitionItem(item, ItemPreparing, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, stamped, again.Timestamps[ItemPreparing])
	assert.Equal(t, *item.StartTime, *again.StartTime)
}

func TestTransitionItem_CancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []ItemStatus{ItemPending, ItemPreparing, ItemOven, ItemCutting, ItemReadyToServe} {
		t.Run(string(from), func(t *testing.T) {
			item := pendingItem()
			item.Status = from

			got, err := TransitionItem(item, ItemCancelled, t0.Add(time.Minute))
			require.NoError(t, err)
			assert.Equal(t, ItemCancelled, got.Status)
			assert.True(t, got.Timestamps.Has(ItemCancelled))
		})
	}
}

func TestTransitionItem_DoesNotAliasInput(t *testing.T) {
	item := pendingItem()

	next, err := TransitionItem(item, ItemPreparing, t0.Add(time.Minute))
	require.NoError(t, err)

	assert.False(t, item.Timestamps.Has(ItemPreparing))
	assert.Nil(t, item.StartTime)
	assert.True(t, next.Timestamps.Has(ItemPreparing))
}

func TestTransitionItem_StartTimeSetOnce(t *testing.T) {
	item := walk(t, pendingItem(), ItemPreparing)
	first := *item.StartTime

	item = walk(t, item, ItemOven, ItemCutting)
	assert.Equal(t, first, *item.StartTime)
}

func TestLedger_WriteOnce(t *testing.T) {
	l := Ledger[ItemStatus]{}

	assert.True(t, l.Stamp(ItemOven, t0))
	assert.False(t, l.Stamp(ItemOven, t0.Add(time.Minute)))

	at, ok := l.At(ItemOven)
	require.True(t, ok)
	assert.Equal(t, t0, at)

	c := l.Clone()
	c.Stamp(ItemCutting, t0)
	assert.False(t, l.Has(ItemCutting))
}
