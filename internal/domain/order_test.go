package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validOrder() *Order {
	orderID := uuid.New()
	return &Order{
		ID:     orderID,
		UserID: uuid.New(),
		Side:   OrderSideBuy,
		Price:  decimal.NewFromInt(60),
		Status: OrderStatusPending,
		Item: OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			InstrumentID: "BTC",
			Quantity:     decimal.NewFromInt(2),
			BuyPrice:     decimal.NewFromInt(30),
		},
	}
}

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, validOrder().Validate())

	noUser := validOrder()
	noUser.UserID = uuid.Nil
	assert.Error(t, noUser.Validate())

	badSide := validOrder()
	badSide.Side = OrderSide("HOLD")
	assert.Error(t, badSide.Validate())

	badStatus := validOrder()
	badStatus.Status = OrderStatus("CANCELLED")
	assert.Error(t, badStatus.Validate())

	noInstrument := validOrder()
	noInstrument.Item.InstrumentID = ""
	assert.Error(t, noInstrument.Validate())

	zeroQuantity := validOrder()
	zeroQuantity.Item.Quantity = decimal.Zero
	assert.ErrorIs(t, zeroQuantity.Validate(), ErrInvalidQuantity)

	negativeQuantity := validOrder()
	negativeQuantity.Item.Quantity = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negativeQuantity.Validate(), ErrInvalidQuantity)

	negativePrice := validOrder()
	negativePrice.Price = decimal.NewFromInt(-60)
	assert.Error(t, negativePrice.Validate())
}

func TestOrderMatches(t *testing.T) {
	order := validOrder()

	assert.True(t, order.Matches(OrderFilter{}))
	assert.True(t, order.Matches(OrderFilter{Side: OrderSideBuy}))
	assert.True(t, order.Matches(OrderFilter{InstrumentID: "BTC"}))
	assert.True(t, order.Matches(OrderFilter{Side: OrderSideBuy, InstrumentID: "BTC"}))

	assert.False(t, order.Matches(OrderFilter{Side: OrderSideSell}))
	assert.False(t, order.Matches(OrderFilter{InstrumentID: "ETH"}))
	assert.False(t, order.Matches(OrderFilter{Side: OrderSideBuy, InstrumentID: "ETH"}))
}
