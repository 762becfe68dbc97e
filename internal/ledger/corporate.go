package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Corporate and chain events rescale, transfer, or zero out basis without a
// matching market trade. Every handler is a no-op when the referenced symbol
// has no open position, except fixed-amount airdrops, which may create one
// from nothing.

func checkRatio(name string, ratio decimal.Decimal) error {
	if !ratio.IsPositive() {
		return fmt.Errorf("%w: %s ratio %s must be positive", ErrInvalidParameter, name, ratio)
	}
	return nil
}

// addLongLot appends a lot with the given transferred basis to the symbol's
// long book, creating it if needed. When the symbol is already held the lot
// composes with the existing ones instead of replacing them.
func (p *Position) addLongLot(symbol string, quantity, basis decimal.Decimal, at time.Time) {
	lp := p.Long[symbol]
	if lp == nil {
		lp = &LongPosition{Symbol: symbol}
		p.Long[symbol] = lp
	}
	price := decimal.Zero
	if quantity.IsPositive() {
		price = basis.Div(quantity)
	}
	lp.Lots = append(lp.Lots, &Lot{Quantity: quantity, Price: price, Basis: basis, Opened: at})
	lp.Quantity = lp.Quantity.Add(quantity)
	lp.TotalCost = lp.TotalCost.Add(basis)
	lp.recompute()
}

func (p *Position) addShortLot(symbol string, quantity, basis decimal.Decimal, at time.Time) {
	sp := p.Short[symbol]
	if sp == nil {
		sp = &ShortPosition{Symbol: symbol}
		p.Short[symbol] = sp
	}
	price := decimal.Zero
	if quantity.IsPositive() {
		price = basis.Div(quantity)
	}
	sp.Lots = append(sp.Lots, &Lot{Quantity: quantity, Price: price, Basis: basis, Opened: at})
	sp.Quantity = sp.Quantity.Add(quantity)
	sp.TotalProceeds = sp.TotalProceeds.Add(basis)
	sp.recompute()
}

// HandleSplit multiplies every lot quantity by ratio, long and short alike.
// Basis is unchanged, so the average cost scales by 1/ratio. No cash moves.
func (p *Position) HandleSplit(symbol string, ratio decimal.Decimal, at time.Time) error {
	if err := checkRatio("split", ratio); err != nil {
		return err
	}
	lp, sp := p.Long[symbol], p.Short[symbol]
	if lp == nil && sp == nil {
		return nil
	}
	if lp != nil {
		for _, lot := range lp.Lots {
			lot.Quantity = lot.Quantity.Mul(ratio)
			lot.Price = lot.Price.Div(ratio)
		}
		lp.Quantity = lp.Quantity.Mul(ratio)
		lp.recompute()
	}
	if sp != nil {
		for _, lot := range sp.Lots {
			lot.Quantity = lot.Quantity.Mul(ratio)
			lot.Price = lot.Price.Div(ratio)
		}
		sp.Quantity = sp.Quantity.Mul(ratio)
		sp.recompute()
	}
	p.Modified = at
	return nil
}

// HandleCashDividend credits the after-tax dividend to cash and reduces the
// long basis by the same amount, lot by lot. A short holder owes the gross
// dividend: proceeds shrink by the full amount and cash pays it out.
func (p *Position) HandleCashDividend(symbol string, amountPerShare, taxRate decimal.Decimal, at time.Time) error {
	if amountPerShare.IsNegative() {
		return fmt.Errorf("%w: dividend amount %s must not be negative", ErrInvalidParameter, amountPerShare)
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: tax rate %s must be within [0,1]", ErrInvalidParameter, taxRate)
	}
	lp, sp := p.Long[symbol], p.Short[symbol]
	if lp == nil && sp == nil {
		return nil
	}
	if lp != nil {
		net := amountPerShare.Mul(decimal.NewFromInt(1).Sub(taxRate))
		for _, lot := range lp.Lots {
			lot.Basis = lot.Basis.Sub(lot.Quantity.Mul(net))
		}
		received := lp.Quantity.Mul(net)
		lp.TotalCost = lp.TotalCost.Sub(received)
		lp.recompute()
		p.Cash = p.Cash.Add(received)
	}
	if sp != nil {
		for _, lot := range sp.Lots {
			lot.Basis = lot.Basis.Sub(lot.Quantity.Mul(amountPerShare))
		}
		owed := sp.Quantity.Mul(amountPerShare)
		sp.TotalProceeds = sp.TotalProceeds.Sub(owed)
		sp.recompute()
		p.Cash = p.Cash.Sub(owed)
	}
	p.Modified = at
	return nil
}

// HandleSpinoff grants oldQty*ratio of newSymbol at zero basis. The original
// position is untouched and no cash moves.
func (p *Position) HandleSpinoff(symbol, newSymbol string, ratio decimal.Decimal, at time.Time) error {
	if err := checkRatio("spinoff", ratio); err != nil {
		return err
	}
	lp, sp := p.Long[symbol], p.Short[symbol]
	if lp == nil && sp == nil {
		return nil
	}
	if lp != nil {
		p.addLongLot(newSymbol, lp.Quantity.Mul(ratio), decimal.Zero, at)
	}
	if sp != nil {
		p.addShortLot(newSymbol, sp.Quantity.Mul(ratio), decimal.Zero, at)
	}
	p.Modified = at
	return nil
}

// HandleMerger replaces the position in symbol with oldQty*ratio of
// newSymbol. The cash component is paid out per old share (received for
// longs, owed for shorts) and deducted from the transferred basis.
func (p *Position) HandleMerger(symbol, newSymbol string, ratio, cashComponent decimal.Decimal, at time.Time) error {
	if err := checkRatio("merger", ratio); err != nil {
		return err
	}
	if cashComponent.IsNegative() {
		return fmt.Errorf("%w: merger cash component %s must not be negative", ErrInvalidParameter, cashComponent)
	}
	lp, sp := p.Long[symbol], p.Short[symbol]
	if lp == nil && sp == nil {
		return nil
	}
	if lp != nil {
		cashOut := lp.Quantity.Mul(cashComponent)
		p.addLongLot(newSymbol, lp.Quantity.Mul(ratio), lp.TotalCost.Sub(cashOut), at)
		delete(p.Long, symbol)
		p.Cash = p.Cash.Add(cashOut)
	}
	if sp != nil {
		cashOut := sp.Quantity.Mul(cashComponent)
		p.addShortLot(newSymbol, sp.Quantity.Mul(ratio), sp.TotalProceeds.Sub(cashOut), at)
		delete(p.Short, symbol)
		p.Cash = p.Cash.Sub(cashOut)
	}
	p.Modified = at
	return nil
}

// HandleHardFork grants oldQty*ratio of the forked chain's token at zero
// basis, leaving the original position unchanged.
func (p *Position) HandleHardFork(symbol, newSymbol string, ratio decimal.Decimal, at time.Time) error {
	if err := checkRatio("fork", ratio); err != nil {
		return err
	}
	lp, sp := p.Long[symbol], p.Short[symbol]
	if lp == nil && sp == nil {
		return nil
	}
	if lp != nil {
		p.addLongLot(newSymbol, lp.Quantity.Mul(ratio), decimal.Zero, at)
	}
	if sp != nil {
		p.addShortLot(newSymbol, sp.Quantity.Mul(ratio), decimal.Zero, at)
	}
	p.Modified = at
	return nil
}

// HandleAirdrop adds zero-basis units of newSymbol. With a holder symbol the
// amount is proportional to the held long quantity; with an empty holder
// symbol the fixed amount is granted unconditionally, creating the position
// if none exists.
func (p *Position) HandleAirdrop(holderSymbol, newSymbol string, amountPerToken, fixedAmount decimal.Decimal, at time.Time) error {
	if holderSymbol != "" {
		if !amountPerToken.IsPositive() {
			return fmt.Errorf("%w: airdrop amount per token %s must be positive", ErrInvalidParameter, amountPerToken)
		}
		lp := p.Long[holderSymbol]
		if lp == nil {
			return nil
		}
		p.addLongLot(newSymbol, lp.Quantity.Mul(amountPerToken), decimal.Zero, at)
		p.Modified = at
		return nil
	}
	if !fixedAmount.IsPositive() {
		return fmt.Errorf("%w: airdrop needs a holder symbol or a positive fixed amount", ErrInvalidParameter)
	}
	p.addLongLot(newSymbol, fixedAmount, decimal.Zero, at)
	p.Modified = at
	return nil
}

// HandleTokenSwap replaces the position in oldSymbol with oldQty*ratio of
// newSymbol, transferring the basis unchanged. No cash moves.
func (p *Position) HandleTokenSwap(oldSymbol, newSymbol string, ratio decimal.Decimal, at time.Time) error {
	if err := checkRatio("swap", ratio); err != nil {
		return err
	}
	lp, sp := p.Long[oldSymbol], p.Short[oldSymbol]
	if lp == nil && sp == nil {
		return nil
	}
	if lp != nil {
		p.addLongLot(newSymbol, lp.Quantity.Mul(ratio), lp.TotalCost, at)
		delete(p.Long, oldSymbol)
	}
	if sp != nil {
		p.addShortLot(newSymbol, sp.Quantity.Mul(ratio), sp.TotalProceeds, at)
		delete(p.Short, oldSymbol)
	}
	p.Modified = at
	return nil
}

// HandleStakingReward grows the symbol's long position by
// quantity*rewardPerToken at zero basis and returns the reward quantity.
func (p *Position) HandleStakingReward(symbol string, rewardPerToken decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if rewardPerToken.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: staking reward %s must not be negative", ErrInvalidParameter, rewardPerToken)
	}
	lp := p.Long[symbol]
	if lp == nil {
		return decimal.Zero, nil
	}
	reward := lp.Quantity.Mul(rewardPerToken)
	if !reward.IsPositive() {
		return decimal.Zero, nil
	}
	lp.Lots = append(lp.Lots, &Lot{Quantity: reward, Price: decimal.Zero, Basis: decimal.Zero, Opened: at})
	lp.Quantity = lp.Quantity.Add(reward)
	lp.recompute()
	p.Modified = at
	return reward, nil
}
