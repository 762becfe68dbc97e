package ledger

import (
	"time"

	"portacct/types"

	"github.com/shopspring/decimal"
)

// Lot records a single acquisition (long) or short-sale event, kept separate
// from the position aggregate for cost-basis accounting. Basis is the total
// cost for long lots and the total proceeds for short lots, commission
// included. Lots are mutated in place on partial closes and dropped once
// their quantity reaches zero; surviving lots keep their insertion order.
type Lot struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Basis    decimal.Decimal
	Opened   time.Time
}

// consumeLots walks lots oldest-first (FIFO) or newest-first (LIFO),
// consuming up to quantity, and returns the surviving lots together with the
// basis removed. A fully consumed lot contributes its exact stored basis; a
// partially consumed one contributes a proportional share. The caller must
// have checked that quantity does not exceed the total across lots.
func consumeLots(lots []*Lot, quantity decimal.Decimal, strategy types.CloseStrategy) ([]*Lot, decimal.Decimal) {
	remaining := quantity
	basis := decimal.Zero

	idx := make([]int, len(lots))
	for i := range lots {
		idx[i] = i
	}
	if strategy == types.CloseLIFO {
		for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	}

	for _, i := range idx {
		if !remaining.IsPositive() {
			break
		}
		lot := lots[i]
		if lot.Quantity.GreaterThan(remaining) {
			portion := lot.Basis.Mul(remaining).Div(lot.Quantity)
			lot.Quantity = lot.Quantity.Sub(remaining)
			lot.Basis = lot.Basis.Sub(portion)
			basis = basis.Add(portion)
			remaining = decimal.Zero
		} else {
			// Use the lot's exact stored basis so repeated partial closes
			// cannot accumulate rounding error.
			basis = basis.Add(lot.Basis)
			remaining = remaining.Sub(lot.Quantity)
			lot.Quantity = decimal.Zero
			lot.Basis = decimal.Zero
		}
	}

	survivors := lots[:0]
	for _, lot := range lots {
		if !lot.Quantity.IsZero() {
			survivors = append(survivors, lot)
		}
	}
	return survivors, basis
}

// LongPosition aggregates all open long lots for one symbol. The aggregate
// fields are always derivable from the lots: Quantity is the sum of lot
// quantities and TotalCost the sum of lot bases.
type LongPosition struct {
	Symbol      string
	Quantity    decimal.Decimal
	TotalCost   decimal.Decimal
	AverageCost decimal.Decimal
	RealizedPnL decimal.Decimal
	Lots        []*Lot
}

func (lp *LongPosition) recompute() {
	if lp.Quantity.IsPositive() {
		lp.AverageCost = lp.TotalCost.Div(lp.Quantity)
	} else {
		lp.AverageCost = decimal.Zero
	}
}

// ShortPosition aggregates all open short lots for one symbol. TotalProceeds
// mirrors LongPosition.TotalCost with the sign convention flipped.
type ShortPosition struct {
	Symbol          string
	Quantity        decimal.Decimal
	TotalProceeds   decimal.Decimal
	AverageProceeds decimal.Decimal
	RealizedPnL     decimal.Decimal
	Lots            []*Lot
}

func (sp *ShortPosition) recompute() {
	if sp.Quantity.IsPositive() {
		sp.AverageProceeds = sp.TotalProceeds.Div(sp.Quantity)
	} else {
		sp.AverageProceeds = decimal.Zero
	}
}
