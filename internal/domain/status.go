package domain

type ServiceType string

const (
	ServiceDineIn   ServiceType = "dine_in"
	ServiceTakeout  ServiceType = "takeout"
	ServiceDelivery ServiceType = "delivery"
)

type OrderStatus string

const (
	OrderPending      OrderStatus = "pending"
	OrderPreparing    OrderStatus = "preparing"
	OrderReadyToServe OrderStatus = "ready_to_serve"
	OrderInDelivery   OrderStatus = "in_delivery"
	OrderDelivered    OrderStatus = "delivered"
	OrderCancelled    OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order states.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReadyToServe, OrderInDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemPending      ItemStatus = "pending"
	ItemPreparing    ItemStatus = "preparing"
	ItemOven         ItemStatus = "oven"
	ItemCutting      ItemStatus = "cutting"
	ItemReadyToServe ItemStatus = "ready_to_serve"
	ItemDelivered    ItemStatus = "delivered"
	ItemCancelled    ItemStatus = "cancelled"
)

// ItemPath is the forward production path of an item. Cancellation is a side exit.
var ItemPath = []ItemStatus{ItemPending, ItemPreparing, ItemOven, ItemCutting, ItemReadyToServe, ItemDelivered}

// Valid reports whether s is one of the known item states.
func (s ItemStatus) Valid() bool {
	if s == ItemCancelled {
		return true
	}
	for _, p := range ItemPath {
		if p == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s ItemStatus) Terminal() bool {
	return s == ItemDelivered || s == ItemCancelled
}

// InProduction reports whether the item is on the kitchen line.
func (s ItemStatus) InProduction() bool {
	return s == ItemPreparing || s == ItemOven || s == ItemCutting
}

// Done reports whether the item no longer blocks the order from being served.
func (s ItemStatus) Done() bool {
	return s == ItemReadyToServe || s == ItemDelivered || s == ItemCancelled
}

// next returns the immediate successor on the forward path.
func (s ItemStatus) next() (ItemStatus, bool) {
	for i, p := range ItemPath {
		if p == s && i+1 < len(ItemPath) {
			return ItemPath[i+1], true
		}
	}
	return "", false
}
