package reporting

import (
	"context"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/app/storecall"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
	"github.com/YelzhanWeb/orderboard/internal/metrics"
)

type Service struct {
	orderRepo  interfaces.OrderRepository
	recipes    interfaces.RecipeCatalog
	thresholds metrics.Thresholds
	clock      domain.Clock
	policy     storecall.Policy
	logger     logger.Logger
}

func NewService(
	orderRepo interfaces.OrderRepository,
	recipes interfaces.RecipeCatalog,
	thresholds metrics.Thresholds,
	clock domain.Clock,
	policy storecall.Policy,
	logger logger.Logger,
) *Service {
	return &Service{
		orderRepo:  orderRepo,
		recipes:    recipes,
		thresholds: thresholds,
		clock:      clock,
		policy:     policy,
		logger:     logger,
	}
}

// Summary recomputes every figure from the orders created inside r.
func (s *Service) Summary(ctx context.Context, r metrics.Range) (metrics.Summary, error) {
	var orders []*domain.Order
	err := s.policy.Call(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.orderRepo.List(ctx, interfaces.ListFilter{From: r.From, To: r.To})
		return err
	})
	if err != nil {
		return metrics.Summary{}, err
	}

	summary := metrics.Summarize(metrics.Filter(orders, r), s.thresholds)
	summary.Range = r
	return summary, nil
}

// Timers returns the stage timer of every item of the order that is on the line.
func (s *Service) Timers(ctx context.Context, orderID string) ([]metrics.StageTimer, error) {
	var order *domain.Order
	err := s.policy.Call(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	timers := make([]metrics.StageTimer, 0, len(order.Items))
	for _, item := range order.Items {
		if _, ok := metrics.DefaultBudgets.For(item.Status); !ok {
			continue
		}
		timer, ok := metrics.TimerFor(order.ID, item, s.budgets(ctx, item.RecipeID), now)
		if ok {
			timers = append(timers, timer)
		}
	}
	return timers, nil
}

func (s *Service) budgets(ctx context.Context, recipeID string) metrics.StageBudgets {
	if recipeID == "" || s.recipes == nil {
		return metrics.DefaultBudgets
	}
	budgets, err := s.recipes.Budgets(ctx, recipeID)
	if err != nil {
		s.logger.Error("recipe_lookup_failed", "Falling back to default stage budgets", "", map[string]interface{}{
			"recipe_id": recipeID,
		}, err)
		return metrics.DefaultBudgets
	}
	return budgets
}
