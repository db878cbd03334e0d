package amqp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/app/realtime"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

func snapshotBody(t *testing.T, itemVersion int64, status domain.ItemStatus) []byte {
	t.Helper()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	order, err := domain.NewOrder(domain.NewOrderParams{
		CustomerLabel: "Aigerim",
		Fulfillment:   domain.DineIn{TableNumber: "7"},
		Items:         []domain.NewItemParams{{Name: "Pepperoni", Quantity: 1, Price: 11}},
		Total:         11,
	}, created)
	require.NoError(t, err)
	order.ID = "o-42"
	order.Version = 1
	order.Items[0].Version = itemVersion
	order.Items[0].Status = status

	body, err := json.Marshal(interfaces.SnapshotMessage{
		Order:       *order,
		Revision:    order.Revision(),
		Cause:       "item_status",
		PublishedAt: created,
	})
	require.NoError(t, err)
	return body
}

func TestSnapshotHandler_AppliesNewerOnly(t *testing.T) {
	hub := realtime.NewHub(logger.NewNop())
	h := NewSnapshotHandler(hub, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, h.HandleSnapshot(ctx, snapshotBody(t, 2, domain.ItemPreparing)))
	require.NoError(t, h.HandleSnapshot(ctx, snapshotBody(t, 1, domain.ItemPending)))

	orders := hub.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "o-42", orders[0].ID)
	assert.Equal(t, domain.ItemPreparing, orders[0].Items[0].Status)
	assert.Equal(t, domain.DineIn{TableNumber: "7"}, orders[0].Fulfillment)
}

func TestSnapshotHandler_Malformed(t *testing.T) {
	hub := realtime.NewHub(logger.NewNop())
	h := NewSnapshotHandler(hub, logger.NewNop())

	err := h.HandleSnapshot(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, interfaces.ErrMalformedMessage)

	err = h.HandleSnapshot(context.Background(), []byte(`{"revision":3}`))
	assert.ErrorIs(t, err, interfaces.ErrMalformedMessage)
	assert.Empty(t, hub.Orders())
}

func TestNotificationHandler_PrintsSummary(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandler(&out, logger.NewNop())

	require.NoError(t, h.HandleNotification(context.Background(), snapshotBody(t, 4, domain.ItemReadyToServe)))
	assert.Equal(t, "Order o-42 (Aigerim): pending after item_status by unknown, 1/1 items done, revision 5\n", out.String())

	var msg interfaces.SnapshotMessage
	require.NoError(t, json.Unmarshal(snapshotBody(t, 4, domain.ItemReadyToServe), &msg))
	msg.ChangedBy = "cutting-station"
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, h.HandleNotification(context.Background(), body))
	assert.Contains(t, out.String(), "after item_status by cutting-station,")

	out.Reset()
	assert.ErrorIs(t, h.HandleNotification(context.Background(), []byte("nope")), interfaces.ErrMalformedMessage)
	assert.Empty(t, out.String())
}
