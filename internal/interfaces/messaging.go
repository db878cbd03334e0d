package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/domain"
)

type actorKey struct{}

// WithActor records who issued the command carried by ctx. The identity is trusted as given.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the identity stored by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// SnapshotMessage carries the full current state of one order after a write.
type SnapshotMessage struct {
	Order       domain.Order `json:"order"`
	Revision    int64        `json:"revision"`
	Cause       string       `json:"cause"`
	ChangedBy   string       `json:"changed_by,omitempty"`
	PublishedAt time.Time    `json:"published_at"`
}

// Команды для сервисов
type CreateOrderCommand struct {
	CustomerLabel string
	ServiceType   string
	TableNumber   *string
	Address       *string
	Phone         *string
	GeoLocation   *domain.GeoPoint
	Items         []CreateOrderItemCommand
	Total         float64
	Paid          bool
}

type CreateOrderItemCommand struct {
	RecipeID           string
	Name               string
	Quantity           int
	Price              float64
	RemovedIngredients []string
	Notes              string
	Ready              bool
}

// ItemPatch holds optional fields written together with an item transition.
type ItemPatch struct {
	Notes *string
}

// Интерфейсы Messaging
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, msg SnapshotMessage) error
}

type SnapshotConsumer interface {
	ConsumeSnapshots(ctx context.Context, handler SnapshotHandler) error
}

type SnapshotHandler func(ctx context.Context, body []byte) error

// ErrMalformedMessage marks a delivery that can never be handled. Consumers drop it instead of requeueing.
var ErrMalformedMessage = errors.New("malformed message")
