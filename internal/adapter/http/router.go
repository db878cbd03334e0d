package http

import (
	"net/http"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
)

type Handlers struct {
	Orders    *OrderHandler
	Kitchen   *KitchenHandler
	Reporting *ReportingHandler
	Stream    *StreamHandler
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(h Handlers, lgr logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /orders", h.Orders.CreateOrder)
	mux.HandleFunc("GET /orders", h.Orders.ListOrders)
	mux.HandleFunc("GET /orders/stream", h.Stream.Stream)
	mux.HandleFunc("GET /orders/{id}", h.Orders.GetOrder)
	mux.HandleFunc("POST /orders/{id}/status", h.Orders.SetOrderStatus)
	mux.HandleFunc("POST /orders/{id}/paid", h.Orders.SetPaid)
	mux.HandleFunc("POST /orders/{id}/items/{itemId}/status", h.Kitchen.TransitionItem)
	mux.HandleFunc("GET /orders/{id}/timers", h.Reporting.Timers)
	mux.HandleFunc("GET /kitchen/board", h.Kitchen.Board)
	mux.HandleFunc("GET /reports/summary", h.Reporting.Summary)
	mux.HandleFunc("GET /reports/export", h.Reporting.Export)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Apply middleware
	handler := ActorMiddleware()(mux)
	handler = LoggingMiddleware(lgr)(handler)
	handler = RecoveryMiddleware(lgr)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}
