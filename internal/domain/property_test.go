package domain

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var allItemStatuses = []ItemStatus{ItemPending, ItemPreparing, ItemOven, ItemCutting, ItemReadyToServe, ItemDelivered, ItemCancelled}

func genItemStatus() gopter.Gen {
	values := make([]interface{}, len(allItemStatuses))
	for i, s := range allItemStatuses {
		values[i] = s
	}
	return gen.OneConstOf(values...)
}

// itemAt builds an item whose ledger is consistent with having walked to status.
func itemAt(status ItemStatus) OrderItem {
	item := OrderItem{ID: "p", Name: "Calabresa", Quantity: 1, Status: ItemPending, Timestamps: Ledger[ItemStatus]{ItemPending: t0}}
	if status == ItemPending {
		return item
	}
	for i, s := range ItemPath[1:] {
		if status == ItemCancelled {
			break
		}
		next, _ := TransitionItem(item, s, t0.Add(time.Duration(i+1)*time.Minute))
		item = next
		if s == status {
			return item
		}
	}
	next, _ := TransitionItem(item, ItemCancelled, t0.Add(time.Minute))
	return next
}

func isSuccessor(from, to ItemStatus) bool {
	n, ok := from.next()
	return ok && n == to
}

func TestItemTransitionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("re-entering the current status never rewrites the ledger", prop.ForAll(
		func(s ItemStatus, offset int64) bool {
			item := itemAt(s)
			got, err := TransitionItem(item, s, t0.Add(time.Duration(offset)*time.Second))
			return err == nil && reflect.DeepEqual(item, got)
		},
		genItemStatus(),
		gen.Int64Range(1, 1<<20),
	))

	properties.Property("anything but the successor or cancel is rejected without change", prop.ForAll(
		func(from, to ItemStatus) bool {
			if from == to || isSuccessor(from, to) || (to == ItemCancelled && !from.Terminal()) {
				return true
			}
			item := itemAt(from)
			before := item.Clone()
			got, err := TransitionItem(item, to, t0.Add(time.Hour))
			return errors.Is(err, ErrIllegalTransition) && reflect.DeepEqual(before, got) && reflect.DeepEqual(before, item)
		},
		genItemStatus(),
		genItemStatus(),
	))

	properties.Property("ledger entries are write-once across any command sequence", prop.ForAll(
		func(cmds []ItemStatus) bool {
			item := itemAt(ItemPending)
			seen := map[ItemStatus]time.Time{ItemPending: t0}
			for i, c := range cmds {
				next, err := TransitionItem(item, c, t0.Add(time.Duration(i+1)*time.Second))
				if err != nil {
					continue
				}
				for s, at := range seen {
					if !next.Timestamps[s].Equal(at) {
						return false
					}
				}
				for s, at := range next.Timestamps {
					seen[s] = at
				}
				item = next
			}
			return true
		},
		gen.SliceOf(genItemStatus()),
	))

	properties.TestingRun(t)
}

func TestOrderRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	production := []ItemStatus{ItemPreparing, ItemOven, ItemCutting, ItemReadyToServe}

	properties.Property("any per-item-ordered interleaving ends ready_to_serve", prop.ForAll(
		func(n int, seed int64) bool {
			items := make([]NewItemParams, n)
			for i := range items {
				items[i] = NewItemParams{Name: "Pizza", Quantity: 1}
			}
			o, err := NewOrder(NewOrderParams{CustomerLabel: "Mesa 3", Fulfillment: DineIn{TableNumber: "3"}, Items: items}, t0)
			if err != nil {
				return false
			}

			// one token per remaining step; shuffling tokens keeps per-item order
			var schedule []int
			for i := 0; i < n; i++ {
				for range production {
					schedule = append(schedule, i)
				}
			}
			rnd := rand.New(rand.NewSource(seed))
			rnd.Shuffle(len(schedule), func(a, b int) { schedule[a], schedule[b] = schedule[b], schedule[a] })

			progress := make([]int, n)
			for step, idx := range schedule {
				now := t0.Add(time.Duration(step+1) * time.Second)
				next, err := TransitionItem(o.Items[idx], production[progress[idx]], now)
				if err != nil {
					return false
				}
				progress[idx]++
				o.Items[idx] = next
				o.Reaggregate(now)
				if o.Status == OrderReadyToServe && step != len(schedule)-1 {
					return false
				}
			}

			if o.Status != OrderReadyToServe {
				return false
			}
			for _, item := range o.Items {
				for _, s := range ItemPath[:5] {
					if !item.Timestamps.Has(s) {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
