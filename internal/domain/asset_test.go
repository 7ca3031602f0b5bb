package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAssetValidate(t *testing.T) {
	valid := &Asset{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		InstrumentID: "BTC",
		Quantity:     decimal.NewFromInt(2),
		BuyPrice:     decimal.NewFromInt(30),
	}
	assert.NoError(t, valid.Validate())

	// Zero quantity is a legitimate post-sell state.
	emptied := *valid
	emptied.Quantity = decimal.Zero
	assert.NoError(t, emptied.Validate())

	negative := *valid
	negative.Quantity = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())

	noUser := *valid
	noUser.UserID = uuid.Nil
	assert.Error(t, noUser.Validate())

	noInstrument := *valid
	noInstrument.InstrumentID = ""
	assert.Error(t, noInstrument.Validate())

	negativeBasis := *valid
	negativeBasis.BuyPrice = decimal.NewFromInt(-30)
	assert.Error(t, negativeBasis.Validate())
}

func TestAssetMarketValue(t *testing.T) {
	position := &Asset{
		Quantity: decimal.RequireFromString("0.04"),
	}

	value := position.MarketValue(decimal.NewFromInt(20))

	assert.True(t, value.Equal(decimal.RequireFromString("0.8")))
}
