package order

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/app/storecall"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

type Service struct {
	repo      interfaces.OrderRepository
	publisher interfaces.SnapshotPublisher
	clock     domain.Clock
	policy    storecall.Policy
	logger    logger.Logger
}

func NewService(
	repo interfaces.OrderRepository,
	publisher interfaces.SnapshotPublisher,
	clock domain.Clock,
	policy storecall.Policy,
	logger logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		policy:    policy,
		logger:    logger,
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	// 1. Преобразование команд в доменные модели
	fulfillment, err := domain.FulfillmentFromFields(
		domain.ServiceType(cmd.ServiceType), cmd.TableNumber, cmd.Address, cmd.Phone, cmd.GeoLocation)
	if err != nil {
		return nil, err
	}

	items := make([]domain.NewItemParams, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.NewItemParams{
			RecipeID:           item.RecipeID,
			Name:               item.Name,
			Quantity:           item.Quantity,
			Price:              item.Price,
			RemovedIngredients: item.RemovedIngredients,
			Notes:              item.Notes,
			Ready:              item.Ready,
		}
	}

	// 2. Создание доменной сущности (валидация и агрегация статуса)
	order, err := domain.NewOrder(domain.NewOrderParams{
		CustomerLabel: cmd.CustomerLabel,
		Fulfillment:   fulfillment,
		Items:         items,
		Total:         cmd.Total,
		Paid:          cmd.Paid,
	}, s.clock.Now())
	if err != nil {
		s.logger.Debug("validation_failed", "Order validation failed", "", map[string]interface{}{"reason": err.Error()})
		return nil, err
	}

	// 3. Сохранение
	if err := s.policy.Call(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, order)
	}); err != nil {
		s.logger.Error("order_create_failed", "Failed to create order", "", map[string]interface{}{"order_id": order.ID}, err)
		return nil, err
	}

	s.logger.Info("order_created", "Order created", "", map[string]interface{}{
		"order_id":     order.ID,
		"service_type": order.ServiceType(),
		"items":        len(order.Items),
	})

	// 4. Публикация снимка
	s.publish(ctx, order, "order_created")
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := s.policy.Call(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := s.policy.Call(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SetOrderStatus applies a caller-requested order transition. Requesting the current
// status succeeds without a write.
func (s *Service) SetOrderStatus(ctx context.Context, id string, target domain.OrderStatus) (*domain.Order, error) {
	return s.updateState(ctx, id, "order_status", func(order *domain.Order) (bool, error) {
		before := order.Status
		if err := order.SetStatus(target, s.clock.Now()); err != nil {
			return false, err
		}
		return order.Status != before, nil
	})
}

// SetPaid is legal in every status.
func (s *Service) SetPaid(ctx context.Context, id string, paid bool) (*domain.Order, error) {
	return s.updateState(ctx, id, "order_paid", func(order *domain.Order) (bool, error) {
		if order.Paid == paid {
			return false, nil
		}
		order.Paid = paid
		return true, nil
	})
}

// updateState re-reads the order, applies mutate and writes the header back under
// its version, retrying when another writer got there first.
func (s *Service) updateState(ctx context.Context, id, cause string, mutate func(*domain.Order) (bool, error)) (*domain.Order, error) {
	var (
		order   *domain.Order
		changed bool
	)
	err := s.policy.Retry(ctx, func(ctx context.Context) error {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		expected := current.Version

		changed, err = mutate(current)
		if err != nil {
			return err
		}
		if changed {
			if err := s.repo.UpdateOrderState(ctx, current, expected); err != nil {
				return err
			}
		}
		order = current
		return nil
	})
	if err != nil {
		s.logger.Debug("order_update_rejected", fmt.Sprintf("Order %s update rejected", id), "", map[string]interface{}{
			"cause":  cause,
			"reason": err.Error(),
		})
		return nil, err
	}

	if changed {
		s.logger.Info("order_updated", "Order updated", "", map[string]interface{}{
			"order_id": order.ID,
			"cause":    cause,
			"status":   order.Status,
			"paid":     order.Paid,
		})
		s.publish(ctx, order, cause)
	}
	return order, nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order, cause string) {
	msg := interfaces.SnapshotMessage{
		Order:       *order.Clone(),
		Revision:    order.Revision(),
		Cause:       cause,
		ChangedBy:   interfaces.ActorFrom(ctx),
		PublishedAt: s.clock.Now(),
	}
	if err := s.publisher.PublishSnapshot(ctx, msg); err != nil {
		// Запись уже сохранена; подписчики догонят при следующем снимке
		s.logger.Error("snapshot_publish_failed", "Failed to publish order snapshot", "", map[string]interface{}{
			"order_id": order.ID,
			"cause":    cause,
		}, err)
	}
}
