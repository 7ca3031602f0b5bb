package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// orderRepository implements domain.OrderRepository. An order and its item
// live in two tables joined on order id; they are written together.
type orderRepository struct {
	q queryer
}

const orderColumns = `
	o.id, o.user_id, o.side, o.price, o.timestamp, o.status,
	i.id, i.instrument_id, i.quantity, i.buy_price, i.sell_price
`

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row orderScanner) (*domain.Order, error) {
	var order domain.Order
	var priceStr, quantityStr, buyPriceStr, sellPriceStr string

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Side,
		&priceStr,
		&order.Timestamp,
		&order.Status,
		&order.Item.ID,
		&order.Item.InstrumentID,
		&quantityStr,
		&buyPriceStr,
		&sellPriceStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.Item.OrderID = order.ID

	if order.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	if order.Item.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if order.Item.BuyPrice, err = decimal.NewFromString(buyPriceStr); err != nil {
		return nil, fmt.Errorf("failed to parse buy price: %w", err)
	}
	if order.Item.SellPrice, err = decimal.NewFromString(sellPriceStr); err != nil {
		return nil, fmt.Errorf("failed to parse sell price: %w", err)
	}

	return &order, nil
}

// GetByID retrieves an order with its order item
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE o.id = $1
	`

	return scanOrder(r.q.QueryRowContext(ctx, query, id))
}

// ListByUser retrieves a user's orders, newest first, narrowed by filter
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE o.user_id = $1
		  AND ($2 = '' OR o.side = $2)
		  AND ($3 = '' OR i.instrument_id = $3)
		ORDER BY o.timestamp DESC
	`

	rows, err := r.q.QueryContext(ctx, query, userID, string(filter.Side), filter.InstrumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// Create creates an order together with its order item
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	insertOrderQuery := `
		INSERT INTO orders (id, user_id, side, price, timestamp, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, insertOrderQuery,
		order.ID,
		order.UserID,
		string(order.Side),
		order.Price.String(),
		order.Timestamp,
		string(order.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	insertItemQuery := `
		INSERT INTO order_items (id, order_id, instrument_id, quantity, buy_price, sell_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.q.ExecContext(ctx, insertItemQuery,
		order.Item.ID,
		order.ID,
		order.Item.InstrumentID,
		order.Item.Quantity.String(),
		order.Item.BuyPrice.String(),
		order.Item.SellPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	return nil
}

// Update persists changes to an existing order and its item
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	updateOrderQuery := `
		UPDATE orders
		SET side = $2, price = $3, status = $4
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, updateOrderQuery,
		order.ID,
		string(order.Side),
		order.Price.String(),
		string(order.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	updateItemQuery := `
		UPDATE order_items
		SET quantity = $2, buy_price = $3, sell_price = $4
		WHERE order_id = $1
	`

	if _, err := r.q.ExecContext(ctx, updateItemQuery,
		order.ID,
		order.Item.Quantity.String(),
		order.Item.BuyPrice.String(),
		order.Item.SellPrice.String(),
	); err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}

	return nil
}
