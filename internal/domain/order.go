package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is the shared record every station reads and mutates.
type Order struct {
	ID            string
	Fulfillment   Fulfillment
	CustomerLabel string
	Items         []OrderItem
	Total         float64
	Paid          bool
	Status        OrderStatus
	CreatedAt     time.Time
	Timestamps    Ledger[OrderStatus]
	// Version counts writes to the order header (status, paid, order ledger).
	Version int64
}

// OrderItem is one produced unit within an order.
type OrderItem struct {
	ID                 string             `json:"id"`
	RecipeID           string             `json:"recipeId,omitempty"`
	Name               string             `json:"name"`
	Quantity           int                `json:"quantity"`
	Price              float64            `json:"price"`
	RemovedIngredients []string           `json:"removedIngredients"`
	Notes              string             `json:"notes,omitempty"`
	Status             ItemStatus         `json:"status"`
	StartTime          *time.Time         `json:"startTime,omitempty"`
	Timestamps         Ledger[ItemStatus] `json:"timestamps"`
	Version            int64              `json:"version"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fulfillment carries the attributes that only exist for one service type.
type Fulfillment interface {
	ServiceType() ServiceType
	validate() error
}

type DineIn struct {
	TableNumber string
}

type Takeout struct{}

type Delivery struct {
	Address string
	Phone   string
	Geo     *GeoPoint
}

func (DineIn) ServiceType() ServiceType   { return ServiceDineIn }
func (Takeout) ServiceType() ServiceType  { return ServiceTakeout }
func (Delivery) ServiceType() ServiceType { return ServiceDelivery }

func (f DineIn) validate() error {
	if strings.TrimSpace(f.TableNumber) == "" {
		return fmt.Errorf("%w: table number required for dine-in orders", ErrInvalidOrder)
	}
	return nil
}

func (Takeout) validate() error { return nil }

func (f Delivery) validate() error {
	if strings.TrimSpace(f.Address) == "" {
		return fmt.Errorf("%w: address required for delivery orders", ErrInvalidOrder)
	}
	return nil
}

// FulfillmentFromFields rebuilds the variant from the flat persisted attributes.
func FulfillmentFromFields(t ServiceType, tableNumber, address, phone *string, geo *GeoPoint) (Fulfillment, error) {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	switch t {
	case ServiceDineIn:
		return DineIn{TableNumber: deref(tableNumber)}, nil
	case ServiceTakeout:
		return Takeout{}, nil
	case ServiceDelivery:
		return Delivery{Address: deref(address), Phone: deref(phone), Geo: geo}, nil
	default:
		return nil, fmt.Errorf("%w: unknown service type %q", ErrInvalidOrder, t)
	}
}

type NewOrderParams struct {
	CustomerLabel string
	Fulfillment   Fulfillment
	Items         []NewItemParams
	Total         float64
	Paid          bool
}

type NewItemParams struct {
	RecipeID           string
	Name               string
	Quantity           int
	Price              float64
	RemovedIngredients []string
	Notes              string
	// Ready marks items with no production stages (drinks, extras).
	Ready bool
}

// NewOrder creates a pending order with every item pending or ready.
func NewOrder(p NewOrderParams, now time.Time) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &Order{
		ID:            uuid.NewString(),
		Fulfillment:   p.Fulfillment,
		CustomerLabel: strings.TrimSpace(p.CustomerLabel),
		Total:         p.Total,
		Paid:          p.Paid,
		Status:        OrderPending,
		CreatedAt:     now,
		Timestamps:    Ledger[OrderStatus]{OrderPending: now},
		Items:         make([]OrderItem, 0, len(p.Items)),
	}

	for _, ip := range p.Items {
		item := OrderItem{
			ID:                 uuid.NewString(),
			RecipeID:           ip.RecipeID,
			Name:               strings.TrimSpace(ip.Name),
			Quantity:           ip.Quantity,
			Price:              ip.Price,
			RemovedIngredients: append([]string{}, ip.RemovedIngredients...),
			Notes:              ip.Notes,
			Status:             ItemPending,
			Timestamps:         Ledger[ItemStatus]{ItemPending: now},
		}
		if ip.Ready {
			item.Status = ItemReadyToServe
			item.Timestamps.Stamp(ItemReadyToServe, now)
			start := now
			item.StartTime = &start
		}
		order.Items = append(order.Items, item)
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.Reaggregate(now)
	return order, nil
}

// Validate applies creation rules.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	if len(o.CustomerLabel) < 1 || len(o.CustomerLabel) > 100 {
		return fmt.Errorf("%w: customer label must be 1-100 characters", ErrInvalidOrder)
	}
	if o.Fulfillment == nil {
		return fmt.Errorf("%w: service type is required", ErrInvalidOrder)
	}
	if err := o.Fulfillment.validate(); err != nil {
		return err
	}
	if o.Total < 0 {
		return fmt.Errorf("%w: total must not be negative", ErrInvalidOrder)
	}
	for i, item := range o.Items {
		if item.Name == "" {
			return fmt.Errorf("%w: items[%d] name is required", ErrInvalidOrder, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: items[%d] quantity must be at least 1", ErrInvalidOrder, i)
		}
	}
	return nil
}

func (o *Order) ServiceType() ServiceType {
	if o.Fulfillment == nil {
		return ""
	}
	return o.Fulfillment.ServiceType()
}

// Item returns the index of the item with the given id, or -1.
func (o *Order) Item(id string) int {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Revision grows on every persisted write to the order or any of its items.
func (o *Order) Revision() int64 {
	rev := o.Version
	for _, item := range o.Items {
		rev += item.Version
	}
	return rev
}

// SetStatus applies one of the order transitions a caller may request directly.
func (o *Order) SetStatus(target OrderStatus, now time.Time) error {
	if !target.Valid() {
		return orderTransitionError(o, target, ErrIllegalTransition)
	}
	switch target {
	case OrderPending, OrderPreparing, OrderReadyToServe:
		return orderTransitionError(o, target, ErrForbiddenDirectTransition)
	}

	if target == o.Status {
		return nil
	}

	if o.Status == OrderDelivered || o.Status == OrderCancelled {
		return orderTransitionError(o, target, ErrIllegalTransition)
	}

	switch target {
	case OrderInDelivery:
		if o.ServiceType() != ServiceDelivery || o.Status != OrderReadyToServe {
			return orderTransitionError(o, target, ErrIllegalTransition)
		}
	case OrderDelivered:
		want := OrderReadyToServe
		if o.ServiceType() == ServiceDelivery {
			want = OrderInDelivery
		}
		if o.Status != want {
			return orderTransitionError(o, target, ErrIllegalTransition)
		}
	}

	o.Status = target
	o.Timestamps.Stamp(target, now)
	return nil
}

// Reaggregate recomputes the derived status from the items. It reports whether the status moved.
func (o *Order) Reaggregate(now time.Time) bool {
	statuses := make([]ItemStatus, len(o.Items))
	for i, item := range o.Items {
		statuses[i] = item.Status
	}
	next := Aggregate(o.Status, statuses)
	if next == o.Status {
		return false
	}
	o.Status = next
	o.Timestamps.Stamp(next, now)
	return true
}

func (o *Order) Clone() *Order {
	out := *o
	out.Timestamps = o.Timestamps.Clone()
	out.Items = make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		out.Items[i] = item.Clone()
	}
	if d, ok := o.Fulfillment.(Delivery); ok && d.Geo != nil {
		geo := *d.Geo
		d.Geo = &geo
		out.Fulfillment = d
	}
	return &out
}

func (it OrderItem) Clone() OrderItem {
	out := it
	out.Timestamps = it.Timestamps.Clone()
	if it.RemovedIngredients != nil {
		out.RemovedIngredients = append([]string{}, it.RemovedIngredients...)
	}
	if it.StartTime != nil {
		t := *it.StartTime
		out.StartTime = &t
	}
	return out
}
