package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot is a read-only view of current prices, keyed by symbol.
// The accounting core consumes snapshots; it never fetches prices itself.
type MarketSnapshot struct {
	Time   time.Time
	Prices map[string]decimal.Decimal
}

func NewMarketSnapshot(t time.Time, prices map[string]decimal.Decimal) MarketSnapshot {
	return MarketSnapshot{Time: t, Prices: prices}
}

func (s MarketSnapshot) Price(symbol string) (decimal.Decimal, bool) {
	price, ok := s.Prices[symbol]
	return price, ok
}

// HoldingSnapshot is a read-only summary of one symbol's open long or short
// position. AverageBasis is the average cost per unit for longs and the
// average proceeds per unit for shorts.
type HoldingSnapshot struct {
	Symbol       string
	Quantity     decimal.Decimal
	AverageBasis decimal.Decimal
	RealizedPnL  decimal.Decimal
	Lots         int
}

// PositionView is a read-only snapshot of a single-currency position.
type PositionView struct {
	Currency        string
	Cash            decimal.Decimal
	RealizedPnL     decimal.Decimal
	TotalCommission decimal.Decimal
	Long            map[string]HoldingSnapshot
	Short           map[string]HoldingSnapshot
}

// PortfolioView is a read-only snapshot of a portfolio, keyed by currency.
type PortfolioView struct {
	ID        string
	Name      string
	Time      time.Time
	Positions map[string]PositionView
}
