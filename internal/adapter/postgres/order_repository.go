package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func storeErr(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreUnavailable, action, err)
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	ledger, err := json.Marshal(order.Timestamps)
	if err != nil {
		return fmt.Errorf("failed to encode order ledger: %w", err)
	}

	var tableNumber, address, phone *string
	var lat, lng *float64
	switch f := order.Fulfillment.(type) {
	case domain.DineIn:
		tableNumber = &f.TableNumber
	case domain.Delivery:
		address, phone = &f.Address, &f.Phone
		if f.Geo != nil {
			lat, lng = &f.Geo.Lat, &f.Geo.Lng
		}
	}

	// Insert order
	query := `
		INSERT INTO orders (id, service_type, customer_label, table_number, address, phone,
		                    geo_lat, geo_lng, total, paid, status, created_at, timestamps, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
	`
	_, err = tx.Exec(ctx, query,
		order.ID, string(order.ServiceType()), order.CustomerLabel, tableNumber, address, phone,
		lat, lng, order.Total, order.Paid, string(order.Status), order.CreatedAt, ledger,
	)
	if err != nil {
		return storeErr("insert order", err)
	}

	// Insert order items
	itemQuery := `
		INSERT INTO order_items (id, order_id, position, recipe_id, name, quantity, price,
		                         removed_ingredients, notes, status, start_time, timestamps, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
	`
	for i, item := range order.Items {
		itemLedger, err := json.Marshal(item.Timestamps)
		if err != nil {
			return fmt.Errorf("failed to encode item ledger: %w", err)
		}
		removed := item.RemovedIngredients
		if removed == nil {
			removed = []string{}
		}
		_, err = tx.Exec(ctx, itemQuery,
			item.ID, order.ID, i, item.RecipeID, item.Name, item.Quantity, item.Price,
			removed, item.Notes, string(item.Status), item.StartTime, itemLedger,
		)
		if err != nil {
			return storeErr("insert order item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit order", err)
	}

	order.Version = 1
	for i := range order.Items {
		order.Items[i].Version = 1
	}
	return nil
}

const orderColumns = `id, service_type, customer_label, table_number, address, phone,
	geo_lat, geo_lng, total, paid, status, created_at, timestamps, version`

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		order                       domain.Order
		serviceType, status         string
		tableNumber, address, phone *string
		lat, lng                    *float64
		ledger                      []byte
	)
	err := row.Scan(
		&order.ID, &serviceType, &order.CustomerLabel, &tableNumber, &address, &phone,
		&lat, &lng, &order.Total, &order.Paid, &status, &order.CreatedAt, &ledger, &order.Version,
	)
	if err != nil {
		return nil, err
	}

	var geo *domain.GeoPoint
	if lat != nil && lng != nil {
		geo = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	order.Fulfillment, err = domain.FulfillmentFromFields(domain.ServiceType(serviceType), tableNumber, address, phone, geo)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	order.CreatedAt = order.CreatedAt.UTC()
	order.Timestamps = domain.Ledger[domain.OrderStatus]{}
	if err := json.Unmarshal(ledger, &order.Timestamps); err != nil {
		return nil, fmt.Errorf("failed to decode order ledger: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("load order", err)
	}

	items, err := r.loadItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	var (
		conds []string
		args  []any
	)
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query orders", err)
	}
	defer rows.Close()

	var (
		orders []*domain.Order
		ids    []string
	)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, storeErr("scan order", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate orders", err)
	}
	if len(orders) == 0 {
		return []*domain.Order{}, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	query := `
		SELECT order_id, id, recipe_id, name, quantity, price, removed_ingredients,
		       notes, status, start_time, timestamps, version
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, storeErr("load order items", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item      domain.OrderItem
			orderID   string
			status    string
			startTime *time.Time
			ledger    []byte
		)
		if err := rows.Scan(
			&orderID, &item.ID, &item.RecipeID, &item.Name, &item.Quantity, &item.Price,
			&item.RemovedIngredients, &item.Notes, &status, &startTime, &ledger, &item.Version,
		); err != nil {
			return nil, storeErr("scan order item", err)
		}

		item.Status = domain.ItemStatus(status)
		if startTime != nil {
			t := startTime.UTC()
			item.StartTime = &t
		}
		item.Timestamps = domain.Ledger[domain.ItemStatus]{}
		if err := json.Unmarshal(ledger, &item.Timestamps); err != nil {
			return nil, fmt.Errorf("failed to decode item ledger: %w", err)
		}
		out[orderID] = append(out[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate order items", err)
	}
	return out, nil
}

func (r *orderRepository) UpdateItem(ctx context.Context, orderID string, item *domain.OrderItem, expectedVersion int64) error {
	ledger, err := json.Marshal(item.Timestamps)
	if err != nil {
		return fmt.Errorf("failed to encode item ledger: %w", err)
	}

	query := `
		UPDATE order_items
		SET status = $1, notes = $2, start_time = $3, timestamps = $4, version = version + 1
		WHERE order_id = $5 AND id = $6 AND version = $7
	`
	tag, err := r.db.Exec(ctx, query,
		string(item.Status), item.Notes, item.StartTime, ledger, orderID, item.ID, expectedVersion,
	)
	if err != nil {
		return storeErr("update order item", err)
	}
	if tag.RowsAffected() == 0 {
		return r.versionMiss(ctx,
			`SELECT version FROM order_items WHERE order_id = $1 AND id = $2`,
			[]any{orderID, item.ID}, fmt.Sprintf("item %s in order %s", item.ID, orderID), expectedVersion)
	}

	item.Version = expectedVersion + 1
	return nil
}

func (r *orderRepository) UpdateOrderState(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	ledger, err := json.Marshal(order.Timestamps)
	if err != nil {
		return fmt.Errorf("failed to encode order ledger: %w", err)
	}

	query := `
		UPDATE orders
		SET status = $1, paid = $2, timestamps = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`
	tag, err := r.db.Exec(ctx, query, string(order.Status), order.Paid, ledger, order.ID, expectedVersion)
	if err != nil {
		return storeErr("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return r.versionMiss(ctx, `SELECT version FROM orders WHERE id = $1`,
			[]any{order.ID}, "order "+order.ID, expectedVersion)
	}

	order.Version = expectedVersion + 1
	return nil
}

// versionMiss tells a missing row apart from a stale version after an update matched nothing.
func (r *orderRepository) versionMiss(ctx context.Context, query string, args []any, what string, expected int64) error {
	var current int64
	err := r.db.QueryRow(ctx, query, args...).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	if err != nil {
		return storeErr("read version", err)
	}
	return fmt.Errorf("%w: %s is at version %d, expected %d", domain.ErrVersionConflict, what, current, expected)
}
