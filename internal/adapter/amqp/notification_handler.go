package amqp

import (
	"context"
	"fmt"
	"io"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
)

// NotificationHandler prints every order snapshot it sees, one line per change.
type NotificationHandler struct {
	out    io.Writer
	logger logger.Logger
}

func NewNotificationHandler(out io.Writer, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		out:    out,
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	msg, err := decodeSnapshot(body)
	if err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received snapshot for order %s", msg.Order.ID),
		msg.Order.ID, map[string]interface{}{
			"order_id": msg.Order.ID,
			"status":   msg.Order.Status,
			"revision": msg.Revision,
		})

	// Print to console
	ready := 0
	for _, item := range msg.Order.Items {
		if item.Status.Done() {
			ready++
		}
	}
	changedBy := msg.ChangedBy
	if changedBy == "" {
		changedBy = "unknown"
	}
	_, err = fmt.Fprintf(h.out, "Order %s (%s): %s after %s by %s, %d/%d items done, revision %d\n",
		msg.Order.ID, msg.Order.CustomerLabel, msg.Order.Status, msg.Cause, changedBy, ready, len(msg.Order.Items), msg.Revision)
	return err
}
