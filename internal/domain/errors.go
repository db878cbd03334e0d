package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition         = errors.New("illegal transition")
	ErrForbiddenDirectTransition = errors.New("order status is derived from its items")
	ErrNotFound                  = errors.New("not found")
	ErrEmptyOrder                = errors.New("order must contain at least one item")
	ErrInvalidOrder              = errors.New("invalid order")
	ErrStoreUnavailable          = errors.New("store unavailable")
	ErrOutcomeUnknown            = errors.New("outcome unknown, re-read before retrying")
	ErrVersionConflict           = errors.New("concurrent modification")
)

// TransitionError describes a rejected status change on an order or an item.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot move from %q to %q: %v", e.Entity, e.ID, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func itemTransitionError(item OrderItem, to ItemStatus) error {
	return &TransitionError{Entity: "item", ID: item.ID, From: string(item.Status), To: string(to), Err: ErrIllegalTransition}
}

func orderTransitionError(o *Order, to OrderStatus, kind error) error {
	return &TransitionError{Entity: "order", ID: o.ID, From: string(o.Status), To: string(to), Err: kind}
}
