package http

import (
	"encoding/json"
	"net/http"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

type KitchenHandler struct {
	service interfaces.KitchenService
	logger  logger.Logger
}

func NewKitchenHandler(service interfaces.KitchenService, logger logger.Logger) *KitchenHandler {
	return &KitchenHandler{
		service: service,
		logger:  logger,
	}
}

type ItemTransitionRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

func (h *KitchenHandler) TransitionItem(w http.ResponseWriter, r *http.Request) {
	var req ItemTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	orderID, itemID := r.PathValue("id"), r.PathValue("itemId")
	h.logger.Debug("request_received", "Item transition requested", RequestID(r.Context()), map[string]interface{}{
		"order_id": orderID,
		"item_id":  itemID,
		"target":   req.Status,
	})

	order, err := h.service.ApplyItemTransition(r.Context(), orderID, itemID,
		domain.ItemStatus(req.Status), interfaces.ItemPatch{Notes: req.Notes})
	if err != nil {
		respondServiceError(w, r, h.logger, "item_transition_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *KitchenHandler) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Board(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, "board_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}
