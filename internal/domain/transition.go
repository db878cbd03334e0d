package domain

import "time"

// TransitionItem moves an item one step along its production path, or to cancelled.
// Re-entering the current status is a no-op so duplicate commands are harmless.
// The input is never modified; the returned item is a copy.
func TransitionItem(item OrderItem, target ItemStatus, now time.Time) (OrderItem, error) {
	if !target.Valid() {
		return item, itemTransitionError(item, target)
	}
	if target == item.Status {
		return item.Clone(), nil
	}

	if target == ItemCancelled {
		if item.Status.Terminal() {
			return item, itemTransitionError(item, target)
		}
	} else if next, ok := item.Status.next(); !ok || next != target {
		return item, itemTransitionError(item, target)
	}

	out := item.Clone()
	if out.Timestamps == nil {
		out.Timestamps = Ledger[ItemStatus]{}
	}
	out.Status = target
	out.Timestamps.Stamp(target, now)
	if out.StartTime == nil && target != ItemPending {
		start := now
		out.StartTime = &start
	}
	return out, nil
}

// Aggregate derives the order status from its items. First matching rule wins:
// an explicitly cancelled order stays cancelled; orders already handed to dispatch
// are past the production ratchet; all items done means ready_to_serve; any item on
// the line moves a pending order to preparing.
func Aggregate(current OrderStatus, items []ItemStatus) OrderStatus {
	switch current {
	case OrderCancelled, OrderInDelivery, OrderDelivered:
		return current
	}
	if len(items) == 0 {
		return current
	}

	allDone := true
	anyInProduction := false
	for _, s := range items {
		if !s.Done() {
			allDone = false
		}
		if s.InProduction() {
			anyInProduction = true
		}
	}

	if allDone {
		return OrderReadyToServe
	}
	if anyInProduction && current == OrderPending {
		return OrderPreparing
	}
	return current
}
