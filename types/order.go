package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type PositionEffect string

type OrderType string

// CloseStrategy selects which lots a close consumes first.
type CloseStrategy string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"

	EffectOpenLong   PositionEffect = "OPEN_LONG"
	EffectCloseLong  PositionEffect = "CLOSE_LONG"
	EffectOpenShort  PositionEffect = "OPEN_SHORT"
	EffectCloseShort PositionEffect = "CLOSE_SHORT"

	TypeMarket    OrderType = "MARKET"
	TypeLimit     OrderType = "LIMIT"
	TypeStop      OrderType = "STOP"
	TypeStopLimit OrderType = "STOP_LIMIT"

	CloseFIFO CloseStrategy = "FIFO"
	CloseLIFO CloseStrategy = "LIFO"
)

// Side returns the order side implied by the effect: buys open longs and
// cover shorts, sells close longs and open shorts.
func (e PositionEffect) Side() Side {
	switch e {
	case EffectOpenLong, EffectCloseShort:
		return SideTypeBuy
	case EffectCloseLong, EffectOpenShort:
		return SideTypeSell
	}
	return ""
}

// Order is a trade intent that has not executed yet. Price is required for
// LIMIT and STOP_LIMIT orders, StopPrice for STOP and STOP_LIMIT orders;
// both are nil otherwise.
type Order struct {
	Symbol    string
	Side      Side
	Effect    PositionEffect
	Type      OrderType
	Quantity  decimal.Decimal
	Price     *decimal.Decimal
	StopPrice *decimal.Decimal
	CreatedAt time.Time
}

func NewOrder(
	symbol string,
	effect PositionEffect,
	orderType OrderType,
	quantity decimal.Decimal,
	price *decimal.Decimal,
	stopPrice *decimal.Decimal,
	createdAt time.Time,
) Order {
	return Order{
		Symbol:    symbol,
		Side:      effect.Side(),
		Effect:    effect,
		Type:      orderType,
		Quantity:  quantity,
		Price:     price,
		StopPrice: stopPrice,
		CreatedAt: createdAt,
	}
}
