package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type CreateOrderRequest struct {
	CustomerLabel string             `json:"customerLabel"`
	ServiceType   string             `json:"serviceType"`
	TableNumber   *string            `json:"tableNumber,omitempty"`
	Address       *string            `json:"address,omitempty"`
	Phone         *string            `json:"phone,omitempty"`
	GeoLocation   *domain.GeoPoint   `json:"geoLocation,omitempty"`
	Items         []OrderItemRequest `json:"items"`
	// Total defaults to the sum of the item lines.
	Total *float64 `json:"total,omitempty"`
	Paid  bool     `json:"paid"`
}

type OrderItemRequest struct {
	RecipeID           string   `json:"recipeId,omitempty"`
	Name               string   `json:"name"`
	Quantity           int      `json:"quantity"`
	Price              float64  `json:"price"`
	RemovedIngredients []string `json:"removedIngredients,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	// Ready creates the item already ready_to_serve (drinks, extras).
	Ready bool `json:"ready,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type SetPaidRequest struct {
	Paid *bool `json:"paid"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	// Валидация входных данных
	if validationErrors := validateCreateOrderRequest(req); len(validationErrors) > 0 {
		h.logger.Debug("validation_failed", "Order validation failed", RequestID(r.Context()), map[string]interface{}{
			"errors": validationErrors,
		})
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), toCreateOrderCommand(req))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_creation_failed", err)
		return
	}

	w.Header().Set("Location", "/orders/"+order.ID)
	respondJSON(w, http.StatusCreated, order)
}

func validateCreateOrderRequest(req CreateOrderRequest) []ValidationError {
	var errors []ValidationError

	// 1. Валидация customerLabel
	label := strings.TrimSpace(req.CustomerLabel)
	if len(label) < 1 {
		errors = append(errors, ValidationError{Field: "customerLabel", Message: "customer label is required"})
	} else if len(label) > 100 {
		errors = append(errors, ValidationError{Field: "customerLabel", Message: "customer label must not exceed 100 characters"})
	}

	// 2. Валидация serviceType и зависимых полей
	switch domain.ServiceType(req.ServiceType) {
	case domain.ServiceDineIn:
		if req.TableNumber == nil || strings.TrimSpace(*req.TableNumber) == "" {
			errors = append(errors, ValidationError{Field: "tableNumber", Message: "table number is required for dine-in orders"})
		}
		if req.Address != nil || req.Phone != nil || req.GeoLocation != nil {
			errors = append(errors, ValidationError{Field: "address", Message: "delivery fields must not be present for dine-in orders"})
		}
	case domain.ServiceDelivery:
		if req.Address == nil || strings.TrimSpace(*req.Address) == "" {
			errors = append(errors, ValidationError{Field: "address", Message: "address is required for delivery orders"})
		}
		if req.TableNumber != nil {
			errors = append(errors, ValidationError{Field: "tableNumber", Message: "table number must not be present for delivery orders"})
		}
	case domain.ServiceTakeout:
		if req.TableNumber != nil {
			errors = append(errors, ValidationError{Field: "tableNumber", Message: "table number must not be present for takeout orders"})
		}
		if req.Address != nil || req.Phone != nil || req.GeoLocation != nil {
			errors = append(errors, ValidationError{Field: "address", Message: "delivery fields must not be present for takeout orders"})
		}
	default:
		errors = append(errors, ValidationError{Field: "serviceType", Message: "service type must be one of: dine_in, takeout, delivery"})
	}

	// 3. Валидация items
	if len(req.Items) < 1 {
		errors = append(errors, ValidationError{Field: "items", Message: "order must contain at least 1 item"})
	}
	for i, item := range req.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Name) == "" {
			errors = append(errors, ValidationError{Field: prefix + ".name", Message: "item name is required"})
		}
		if item.Quantity < 1 {
			errors = append(errors, ValidationError{Field: prefix + ".quantity", Message: "item quantity must be at least 1"})
		}
		if item.Price < 0 {
			errors = append(errors, ValidationError{Field: prefix + ".price", Message: "item price must not be negative"})
		}
	}

	if req.Total != nil && *req.Total < 0 {
		errors = append(errors, ValidationError{Field: "total", Message: "total must not be negative"})
	}

	return errors
}

func toCreateOrderCommand(req CreateOrderRequest) interfaces.CreateOrderCommand {
	cmd := interfaces.CreateOrderCommand{
		CustomerLabel: strings.TrimSpace(req.CustomerLabel),
		ServiceType:   req.ServiceType,
		TableNumber:   req.TableNumber,
		Address:       req.Address,
		Phone:         req.Phone,
		GeoLocation:   req.GeoLocation,
		Items:         make([]interfaces.CreateOrderItemCommand, len(req.Items)),
		Paid:          req.Paid,
	}

	var sum float64
	for i, item := range req.Items {
		cmd.Items[i] = interfaces.CreateOrderItemCommand{
			RecipeID:           item.RecipeID,
			Name:               strings.TrimSpace(item.Name),
			Quantity:           item.Quantity,
			Price:              item.Price,
			RemovedIngredients: item.RemovedIngredients,
			Notes:              item.Notes,
			Ready:              item.Ready,
		}
		sum += item.Price * float64(item.Quantity)
	}

	cmd.Total = sum
	if req.Total != nil {
		cmd.Total = *req.Total
	}
	return cmd
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_lookup_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// ListOrders accepts optional from/to bounds as RFC 3339 instants or YYYY-MM-DD dates.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter interfaces.ListFilter
	var err error
	if filter.From, err = parseInstant(r.URL.Query().Get("from")); err != nil {
		respondError(w, "Invalid query", http.StatusBadRequest, []ValidationError{{Field: "from", Message: err.Error()}})
		return
	}
	if filter.To, err = parseInstant(r.URL.Query().Get("to")); err != nil {
		respondError(w, "Invalid query", http.StatusBadRequest, []ValidationError{{Field: "to", Message: err.Error()}})
		return
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_list_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func parseInstant(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 time or YYYY-MM-DD date, got %q", v)
	}
	return t, nil
}

func (h *OrderHandler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	order, err := h.service.SetOrderStatus(r.Context(), r.PathValue("id"), domain.OrderStatus(req.Status))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_status_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) SetPaid(w http.ResponseWriter, r *http.Request) {
	var req SetPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if req.Paid == nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{{Field: "paid", Message: "paid is required"}})
		return
	}

	order, err := h.service.SetPaid(r.Context(), r.PathValue("id"), *req.Paid)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_paid_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
