package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is an immutable execution record. Applying one to a position is what
// mutates state; the fill itself is a fact and never changes.
type Fill struct {
	Symbol     string
	Side       Side
	Effect     PositionEffect
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Commission decimal.Decimal
	Created    time.Time
}

func NewFill(symbol string, effect PositionEffect, price, quantity, commission decimal.Decimal, created time.Time) Fill {
	return Fill{
		Symbol:     symbol,
		Side:       effect.Side(),
		Effect:     effect,
		Price:      price,
		Quantity:   quantity,
		Commission: commission,
		Created:    created,
	}
}
