package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSide represents the direction of a trade
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderStatus represents the state of an order
// An order is created PENDING and moves to SUCCESS when settlement completes.
// A failed settlement aborts the whole unit of work, so no PENDING row ever
// survives as visible state.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusSuccess OrderStatus = "SUCCESS"
)

// Order represents a settled or in-flight trade. Price is fixed at creation
// time (quantity x instrument price at execution) and never recomputed.
type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Side      OrderSide
	Price     decimal.Decimal
	Timestamp time.Time
	Status    OrderStatus
	Item      OrderItem
}

// OrderItem records the execution details attached to an order.
// BuyPrice carries the position's cost basis on sells and the execution
// price on buys; SellPrice is zero on buys.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	InstrumentID string
	Quantity     decimal.Decimal
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
}

// OrderFilter narrows order listings. Zero values mean "no filter".
type OrderFilter struct {
	Side         OrderSide
	InstrumentID string
}

// Validate ensures the order adheres to domain rules
// Returns an error if validation fails
func (o *Order) Validate() error {
	if o.UserID == uuid.Nil {
		return errors.New("order must have an owning user")
	}

	if o.Side != OrderSideBuy && o.Side != OrderSideSell {
		return errors.New("order side must be BUY or SELL")
	}

	if o.Status != OrderStatusPending && o.Status != OrderStatusSuccess {
		return errors.New("order status must be PENDING or SUCCESS")
	}

	if o.Item.InstrumentID == "" {
		return errors.New("order item must reference an instrument")
	}

	if o.Item.Quantity.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}

	if o.Price.IsNegative() {
		return errors.New("order price cannot be negative")
	}

	return nil
}

// Matches reports whether the order passes the filter.
func (o *Order) Matches(filter OrderFilter) bool {
	if filter.Side != "" && o.Side != filter.Side {
		return false
	}

	if filter.InstrumentID != "" && o.Item.InstrumentID != filter.InstrumentID {
		return false
	}

	return true
}
