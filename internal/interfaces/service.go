package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/metrics"
)

// Интерфейсы Сервисов (Business Logic)
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	SetOrderStatus(ctx context.Context, id string, target domain.OrderStatus) (*domain.Order, error)
	SetPaid(ctx context.Context, id string, paid bool) (*domain.Order, error)
}

type KitchenService interface {
	ApplyItemTransition(ctx context.Context, orderID, itemID string, target domain.ItemStatus, patch ItemPatch) (*domain.Order, error)
	Board(ctx context.Context) (*KitchenBoard, error)
}

type ReportingService interface {
	Summary(ctx context.Context, r metrics.Range) (metrics.Summary, error)
	Timers(ctx context.Context, orderID string) ([]metrics.StageTimer, error)
	Export(ctx context.Context, r metrics.Range, w io.Writer) error
}

// OrderFeed streams the full order collection, newest first. The first value is the
// current collection; later values replace it.
type OrderFeed interface {
	Subscribe(ctx context.Context) <-chan []*domain.Order
}

// RecipeCatalog is the read-only boundary to recipe content.
type RecipeCatalog interface {
	Budgets(ctx context.Context, recipeID string) (metrics.StageBudgets, error)
}

// Ответы Kitchen Service
type KitchenBoard struct {
	Columns []BoardColumn `json:"columns"`
}

type BoardColumn struct {
	Status domain.ItemStatus `json:"status"`
	Cards  []BoardCard       `json:"cards"`
}

type BoardCard struct {
	OrderID            string             `json:"order_id"`
	CustomerLabel      string             `json:"customer_label"`
	ServiceType        domain.ServiceType `json:"service_type"`
	ItemID             string             `json:"item_id"`
	Name               string             `json:"name"`
	Quantity           int                `json:"quantity"`
	RemovedIngredients []string           `json:"removed_ingredients,omitempty"`
	Notes              string             `json:"notes,omitempty"`
	EnteredAt          time.Time          `json:"entered_at"`
}
