package ledger

import (
	"portacct/types"

	"github.com/shopspring/decimal"
)

// MarketValue prices the position against a snapshot: cash plus the long
// book's market value minus the short book's. Symbols without a price
// contribute zero.
func (p *Position) MarketValue(snap types.MarketSnapshot) decimal.Decimal {
	value := p.Cash
	for sym, lp := range p.Long {
		if price, ok := snap.Price(sym); ok {
			value = value.Add(price.Mul(lp.Quantity))
		}
	}
	for sym, sp := range p.Short {
		if price, ok := snap.Price(sym); ok {
			value = value.Sub(price.Mul(sp.Quantity))
		}
	}
	return value
}

// UnrealizedPnL is the paper gain or loss on the open books: longs gain as
// the price moves above average cost, shorts as it falls below average
// proceeds. Symbols without a price contribute zero.
func (p *Position) UnrealizedPnL(snap types.MarketSnapshot) decimal.Decimal {
	pnl := decimal.Zero
	for sym, lp := range p.Long {
		price, ok := snap.Price(sym)
		if !ok {
			continue
		}
		pnl = pnl.Add(price.Sub(lp.AverageCost).Mul(lp.Quantity))
	}
	for sym, sp := range p.Short {
		price, ok := snap.Price(sym)
		if !ok {
			continue
		}
		pnl = pnl.Add(sp.AverageProceeds.Sub(price).Mul(sp.Quantity))
	}
	return pnl
}
