package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/adapter/memory"
	"github.com/YelzhanWeb/orderboard/internal/app/storecall"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
	"github.com/YelzhanWeb/orderboard/internal/mocks"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func deliveryCommand() interfaces.CreateOrderCommand {
	return interfaces.CreateOrderCommand{
		CustomerLabel: "Diego",
		ServiceType:   "delivery",
		Address:       strPtr("Rua Oscar Freire 200"),
		Phone:         strPtr("+55 11 4444-0000"),
		GeoLocation:   &domain.GeoPoint{Lat: -23.56, Lng: -46.67},
		Items: []interfaces.CreateOrderItemCommand{
			{RecipeID: "r-marg", Name: "Margherita", Quantity: 1, Price: 42, RemovedIngredients: []string{"basil"}},
			{Name: "Coca-Cola", Quantity: 2, Price: 7, Ready: true},
		},
		Total: 56,
	}
}

func setup(t *testing.T) (*Service, interfaces.OrderRepository, *mocks.MockSnapshotPublisher) {
	t.Helper()
	repo := memory.NewOrderRepository()
	publisher := new(mocks.MockSnapshotPublisher)
	publisher.On("PublishSnapshot", mock.Anything, mock.AnythingOfType("interfaces.SnapshotMessage")).Return(nil)
	svc := NewService(repo, publisher, domain.NewStepClock(t0, time.Minute), storecall.DefaultPolicy, logger.NewNop())
	return svc, repo, publisher
}

func TestCreateOrder(t *testing.T) {
	svc, repo, publisher := setup(t)

	o, err := svc.CreateOrder(context.Background(), deliveryCommand())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, t0, o.CreatedAt)
	require.Len(t, o.Items, 2)
	assert.Equal(t, domain.ItemPending, o.Items[0].Status)
	assert.Equal(t, []string{"basil"}, o.Items[0].RemovedIngredients)
	assert.Equal(t, domain.ItemReadyToServe, o.Items[1].Status)

	delivery, ok := o.Fulfillment.(domain.Delivery)
	require.True(t, ok)
	assert.Equal(t, "Rua Oscar Freire 200", delivery.Address)
	require.NotNil(t, delivery.Geo)

	stored, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, stored)

	publisher.AssertCalled(t, "PublishSnapshot", mock.Anything, mock.MatchedBy(func(msg interfaces.SnapshotMessage) bool {
		return msg.Order.ID == o.ID && msg.Cause == "order_created" && msg.Revision == o.Revision()
	}))
}

func TestCreateOrder_RecordsActor(t *testing.T) {
	svc, _, publisher := setup(t)

	ctx := interfaces.WithActor(context.Background(), "cashier-2")
	o, err := svc.CreateOrder(ctx, deliveryCommand())
	require.NoError(t, err)
	publisher.AssertCalled(t, "PublishSnapshot", mock.Anything, mock.MatchedBy(func(msg interfaces.SnapshotMessage) bool {
		return msg.Order.ID == o.ID && msg.ChangedBy == "cashier-2"
	}))

	_, err = svc.SetOrderStatus(context.Background(), o.ID, domain.OrderCancelled)
	require.NoError(t, err)
	publisher.AssertCalled(t, "PublishSnapshot", mock.Anything, mock.MatchedBy(func(msg interfaces.SnapshotMessage) bool {
		return msg.Order.Status == domain.OrderCancelled && msg.ChangedBy == ""
	}))
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*interfaces.CreateOrderCommand)
		wantErr error
	}{
		{
			name:    "no items",
			mutate:  func(c *interfaces.CreateOrderCommand) { c.Items = nil },
			wantErr: domain.ErrEmptyOrder,
		},
		{
			name:    "unknown service type",
			mutate:  func(c *interfaces.CreateOrderCommand) { c.ServiceType = "drive_thru" },
			wantErr: domain.ErrInvalidOrder,
		},
		{
			name:    "delivery without address",
			mutate:  func(c *interfaces.CreateOrderCommand) { c.Address = nil },
			wantErr: domain.ErrInvalidOrder,
		},
		{
			name: "dine-in without table",
			mutate: func(c *interfaces.CreateOrderCommand) {
				c.ServiceType = "dine_in"
				c.Address = nil
			},
			wantErr: domain.ErrInvalidOrder,
		},
		{
			name:    "blank customer",
			mutate:  func(c *interfaces.CreateOrderCommand) { c.CustomerLabel = "  " },
			wantErr: domain.ErrInvalidOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, publisher := setup(t)
			cmd := deliveryCommand()
			tt.mutate(&cmd)

			_, err := svc.CreateOrder(context.Background(), cmd)
			assert.ErrorIs(t, err, tt.wantErr)
			publisher.AssertNotCalled(t, "PublishSnapshot", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateOrder_StoreTimeout(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(context.DeadlineExceeded)
	publisher := new(mocks.MockSnapshotPublisher)
	svc := NewService(repo, publisher, domain.SystemClock{}, storecall.Policy{Timeout: 20 * time.Millisecond, MaxAttempts: 1}, logger.NewNop())

	_, err := svc.CreateOrder(context.Background(), deliveryCommand())

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, domain.ErrOutcomeUnknown)
	publisher.AssertNotCalled(t, "PublishSnapshot", mock.Anything, mock.Anything)
}

func TestGetAndListOrders(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, deliveryCommand())
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, deliveryCommand())
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = svc.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := svc.ListOrders(ctx, interfaces.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
}

// readyOrder creates an order whose every item is ready, so its status starts at ready_to_serve.
func readyOrder(t *testing.T, svc *Service, serviceType string) *domain.Order {
	t.Helper()
	cmd := deliveryCommand()
	cmd.ServiceType = serviceType
	if serviceType == "dine_in" {
		cmd.TableNumber = strPtr("12")
	}
	for i := range cmd.Items {
		cmd.Items[i].Ready = true
	}
	o, err := svc.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, domain.OrderReadyToServe, o.Status)
	return o
}

func TestSetOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel mid production", func(t *testing.T) {
		svc, _, _ := setup(t)
		o, err := svc.CreateOrder(ctx, deliveryCommand())
		require.NoError(t, err)

		got, err := svc.SetOrderStatus(ctx, o.ID, domain.OrderCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderCancelled, got.Status)
		assert.True(t, got.Timestamps.Has(domain.OrderCancelled))

		_, err = svc.SetOrderStatus(ctx, o.ID, domain.OrderInDelivery)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("derived statuses are forbidden", func(t *testing.T) {
		svc, _, _ := setup(t)
		o, err := svc.CreateOrder(ctx, deliveryCommand())
		require.NoError(t, err)

		for _, target := range []domain.OrderStatus{domain.OrderPending, domain.OrderPreparing, domain.OrderReadyToServe} {
			_, err := svc.SetOrderStatus(ctx, o.ID, target)
			assert.ErrorIs(t, err, domain.ErrForbiddenDirectTransition, string(target))
		}
	})

	t.Run("delivery dispatch and handover", func(t *testing.T) {
		svc, _, publisher := setup(t)
		o := readyOrder(t, svc, "delivery")

		got, err := svc.SetOrderStatus(ctx, o.ID, domain.OrderInDelivery)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderInDelivery, got.Status)

		got, err = svc.SetOrderStatus(ctx, o.ID, domain.OrderDelivered)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderDelivered, got.Status)

		again, err := svc.SetOrderStatus(ctx, o.ID, domain.OrderDelivered)
		require.NoError(t, err)
		assert.Equal(t, got.Timestamps, again.Timestamps)
		publisher.AssertNumberOfCalls(t, "PublishSnapshot", 3)
	})

	t.Run("dispatch needs a delivery order", func(t *testing.T) {
		svc, _, _ := setup(t)
		o := readyOrder(t, svc, "dine_in")

		_, err := svc.SetOrderStatus(ctx, o.ID, domain.OrderInDelivery)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)

		got, err := svc.SetOrderStatus(ctx, o.ID, domain.OrderDelivered)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderDelivered, got.Status)
	})

	t.Run("missing order", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.SetOrderStatus(ctx, "missing", domain.OrderCancelled)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSetPaid(t *testing.T) {
	svc, repo, publisher := setup(t)
	ctx := context.Background()
	o, err := svc.CreateOrder(ctx, deliveryCommand())
	require.NoError(t, err)

	_, err = svc.SetOrderStatus(ctx, o.ID, domain.OrderCancelled)
	require.NoError(t, err)

	got, err := svc.SetPaid(ctx, o.ID, true)
	require.NoError(t, err, "paid is independent of status")
	assert.True(t, got.Paid)
	assert.Equal(t, domain.OrderCancelled, got.Status)

	_, err = svc.SetPaid(ctx, o.ID, true)
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.Equal(t, int64(3), stored.Version)
	publisher.AssertNumberOfCalls(t, "PublishSnapshot", 3)
}

func TestSetPaid_RetriesOnConflict(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	o, err := domain.NewOrder(domain.NewOrderParams{
		CustomerLabel: "Eva",
		Fulfillment:   domain.Takeout{},
		Items:         []domain.NewItemParams{{Name: "Calzone", Quantity: 1, Price: 30}},
	}, t0)
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, o.ID).Return(func(context.Context, string) *domain.Order { return o.Clone() }, nil)
	repo.On("UpdateOrderState", mock.Anything, mock.AnythingOfType("*domain.Order"), int64(0)).
		Return(domain.ErrVersionConflict).Once()
	repo.On("UpdateOrderState", mock.Anything, mock.AnythingOfType("*domain.Order"), int64(0)).
		Return(nil).Once()

	publisher := new(mocks.MockSnapshotPublisher)
	publisher.On("PublishSnapshot", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := NewService(repo, publisher, domain.SystemClock{}, storecall.DefaultPolicy, logger.NewNop())

	got, err := svc.SetPaid(context.Background(), o.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	repo.AssertNumberOfCalls(t, "FindByID", 2)
	repo.AssertNumberOfCalls(t, "UpdateOrderState", 2)
}
