package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

// StreamHandler pushes the full order collection to dashboards as server-sent events.
type StreamHandler struct {
	feed   interfaces.OrderFeed
	logger logger.Logger
}

func NewStreamHandler(feed interfaces.OrderFeed, logger logger.Logger) *StreamHandler {
	return &StreamHandler{
		feed:   feed,
		logger: logger,
	}
}

// Stream writes one "orders" event per collection until the client goes away.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "Streaming unsupported", http.StatusInternalServerError, nil)
		return
	}

	requestID := RequestID(r.Context())
	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug("stream_opened", "Order stream opened", requestID, nil)
	defer h.logger.Debug("stream_closed", "Order stream closed", requestID, nil)

	for orders := range h.feed.Subscribe(r.Context()) {
		data, err := json.Marshal(orders)
		if err != nil {
			h.logger.Error("stream_encode_failed", "Failed to encode orders", requestID, nil, err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: orders\ndata: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}
