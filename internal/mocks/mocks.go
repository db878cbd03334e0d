package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
	"github.com/YelzhanWeb/orderboard/internal/metrics"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockSnapshotPublisher struct {
	mock.Mock
}

type MockRecipeCatalog struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, string) *domain.Order); ok {
		return fn(ctx, id), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateItem(ctx context.Context, orderID string, item *domain.OrderItem, expectedVersion int64) error {
	args := m.Called(ctx, orderID, item, expectedVersion)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateOrderState(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	args := m.Called(ctx, order, expectedVersion)
	return args.Error(0)
}

func (m *MockSnapshotPublisher) PublishSnapshot(ctx context.Context, msg interfaces.SnapshotMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockRecipeCatalog) Budgets(ctx context.Context, recipeID string) (metrics.StageBudgets, error) {
	args := m.Called(ctx, recipeID)
	return args.Get(0).(metrics.StageBudgets), args.Error(1)
}
