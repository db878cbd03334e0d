package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

// SnapshotSink accepts order snapshots and reports whether one was newer than what it holds.
type SnapshotSink interface {
	PublishOrder(o *domain.Order) bool
}

type SnapshotHandler struct {
	sink   SnapshotSink
	logger logger.Logger
}

func NewSnapshotHandler(sink SnapshotSink, logger logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		sink:   sink,
		logger: logger,
	}
}

func decodeSnapshot(body []byte) (interfaces.SnapshotMessage, error) {
	var msg interfaces.SnapshotMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", interfaces.ErrMalformedMessage, err)
	}
	if msg.Order.ID == "" {
		return msg, fmt.Errorf("%w: snapshot without order id", interfaces.ErrMalformedMessage)
	}
	return msg, nil
}

// HandleSnapshot applies a snapshot from another process to the local hub. Echoes of
// local writes and stale redeliveries are ignored by the hub's revision check.
func (h *SnapshotHandler) HandleSnapshot(ctx context.Context, body []byte) error {
	msg, err := decodeSnapshot(body)
	if err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order snapshot", "", nil, err)
		return err
	}

	applied := h.sink.PublishOrder(&msg.Order)
	h.logger.Debug("snapshot_received", fmt.Sprintf("Snapshot for order %s", msg.Order.ID), msg.Order.ID, map[string]interface{}{
		"revision": msg.Revision,
		"cause":    msg.Cause,
		"applied":  applied,
	})
	return nil
}
