package kitchen

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/app/storecall"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

// boardColumns are the kitchen display columns, in line order.
var boardColumns = []domain.ItemStatus{
	domain.ItemPending,
	domain.ItemPreparing,
	domain.ItemOven,
	domain.ItemCutting,
	domain.ItemReadyToServe,
}

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

// ApplyItemTransition moves one item and then re-derives the order status.
//
// The item is written under its own version, so stations working on different items of
// the same order never overwrite each other. The order status is recomputed from a fresh
// read afterwards; that projection is idempotent and safe to repeat.
func (s *Service) ApplyItemTransition(
	ctx context.Context,
	orderID, itemID string,
	target domain.ItemStatus,
	patch interfaces.ItemPatch,
) (*domain.Order, error) {
	var (
		from    domain.ItemStatus
		written bool
	)

	err := s.policy.Retry(ctx, func(ctx context.Context) error {
		order, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		idx := order.Item(itemID)
		if idx < 0 {
			return fmt.Errorf("%w: item %s in order %s", domain.ErrNotFound, itemID, orderID)
		}

		current := order.Items[idx]
		next, err := domain.TransitionItem(current, target, s.clock.Now())
		if err != nil {
			return err
		}
		if patch.Notes != nil {
			next.Notes = *patch.Notes
		}

		from = current.Status
		if next.Status == current.Status && next.Notes == current.Notes {
			written = false
			return nil
		}

		if err := s.repo.UpdateItem(ctx, orderID, &next, current.Version); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		s.logger.Debug("item_transition_rejected", "Item transition rejected", "", map[string]interface{}{
			"order_id": orderID,
			"item_id":  itemID,
			"target":   target,
			"reason":   err.Error(),
		})
		return nil, err
	}

	order, moved, err := s.project(ctx, orderID)
	if err != nil {
		// Позиция уже записана; статус заказа догонит следующая проекция
		s.logger.Error("order_projection_failed", "Failed to re-derive order status", "", map[string]interface{}{
			"order_id": orderID,
		}, err)
		return nil, err
	}

	if written {
		s.logger.Info("item_transitioned", "Item transitioned", "", map[string]interface{}{
			"order_id":     orderID,
			"item_id":      itemID,
			"from":         from,
			"to":           target,
			"order_status": order.Status,
		})
	}
	if written || moved {
		s.publish(ctx, order, "item_transition")
	}
	return order, nil
}

// project recomputes the order status from a fresh read and stores it if it moved.
func (s *Service) project(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	var (
		order *domain.Order
		moved bool
	)
	err := s.policy.Retry(ctx, func(ctx context.Context) error {
		current, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		expected := current.Version

		moved = current.Reaggregate(s.clock.Now())
		if moved {
			if err := s.repo.UpdateOrderState(ctx, current, expected); err != nil {
				return err
			}
		}
		order = current
		return nil
	})
	return order, moved, err
}

// Board groups the items of every order still in production by item status.
// Cards are oldest order first.
func (s *Service) Board(ctx context.Context) (*interfaces.KitchenBoard, error) {
	var orders []*domain.Order
	err := s.policy.Call(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.repo.List(ctx, interfaces.ListFilter{})
		return err
	})
	if err != nil {
		return nil, err
	}

	cards := make(map[domain.ItemStatus][]interfaces.BoardCard, len(boardColumns))
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		switch o.Status {
		case domain.OrderCancelled, domain.OrderInDelivery, domain.OrderDelivered:
			continue
		}
		for _, item := range o.Items {
			entered, _ := item.Timestamps.At(item.Status)
			cards[item.Status] = append(cards[item.Status], interfaces.BoardCard{
				OrderID:            o.ID,
				CustomerLabel:      o.CustomerLabel,
				ServiceType:        o.ServiceType(),
				ItemID:             item.ID,
				Name:               item.Name,
				Quantity:           item.Quantity,
				RemovedIngredients: item.RemovedIngredients,
				Notes:              item.Notes,
				EnteredAt:          entered,
			})
		}
	}

	board := &interfaces.KitchenBoard{Columns: make([]interfaces.BoardColumn, len(boardColumns))}
	for i, status := range boardColumns {
		column := interfaces.BoardColumn{Status: status, Cards: cards[status]}
		if column.Cards == nil {
			column.Cards = []interfaces.BoardCard{}
		}
		board.Columns[i] = column
	}
	return board, nil
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
		s.logger.Error("snapshot_publish_failed", "Failed to publish order snapshot", "", map[string]interface{}{
			"order_id": order.ID,
			"cause":    cause,
		}, err)
	}
}
