package ledger

import (
	"fmt"

	"portacct/types"

	"github.com/shopspring/decimal"
)

// FillResult reports the effect a single applied fill had on the position.
// Opens carry the cash flow with zero realized PnL; closes carry both.
type FillResult struct {
	Fill        types.Fill
	CashFlow    decimal.Decimal
	RealizedPnL decimal.Decimal
}

// BatchResult accumulates the results of an ordered fill sequence.
type BatchResult struct {
	Fills       []FillResult
	CashFlow    decimal.Decimal
	RealizedPnL decimal.Decimal
}

// ApplyFill routes an executed trade to the position's accounting methods by
// effect and records the fill.
func (p *Position) ApplyFill(fill types.Fill, strategy types.CloseStrategy) (FillResult, error) {
	result := FillResult{Fill: fill}

	switch fill.Effect {
	case types.EffectOpenLong:
		flow, err := p.OpenLong(fill.Symbol, fill.Price, fill.Quantity, fill.Commission, fill.Created)
		if err != nil {
			return FillResult{}, err
		}
		result.CashFlow = flow

	case types.EffectCloseLong:
		pnl, err := p.CloseLong(fill.Symbol, fill.Price, fill.Quantity, fill.Commission, strategy, fill.Created)
		if err != nil {
			return FillResult{}, err
		}
		result.CashFlow = fill.Price.Mul(fill.Quantity).Sub(fill.Commission)
		result.RealizedPnL = pnl

	case types.EffectOpenShort:
		flow, err := p.OpenShort(fill.Symbol, fill.Price, fill.Quantity, fill.Commission, fill.Created)
		if err != nil {
			return FillResult{}, err
		}
		result.CashFlow = flow

	case types.EffectCloseShort:
		pnl, err := p.CloseShort(fill.Symbol, fill.Price, fill.Quantity, fill.Commission, strategy, fill.Created)
		if err != nil {
			return FillResult{}, err
		}
		result.CashFlow = fill.Price.Mul(fill.Quantity).Add(fill.Commission).Neg()
		result.RealizedPnL = pnl

	default:
		return FillResult{}, fmt.Errorf("%w: %q", ErrUnknownEffect, fill.Effect)
	}

	p.Fills = append(p.Fills, fill)
	return result, nil
}

// ApplyFills folds a fill sequence through ApplyFill strictly in order, so
// later fills observe the lot state left by earlier ones. The first failing
// fill stops the batch; results up to that point are returned with the error.
func (p *Position) ApplyFills(fills []types.Fill, strategy types.CloseStrategy) (BatchResult, error) {
	var batch BatchResult
	for _, fill := range fills {
		result, err := p.ApplyFill(fill, strategy)
		if err != nil {
			return batch, fmt.Errorf("apply fill %s %s: %w", fill.Effect, fill.Symbol, err)
		}
		batch.Fills = append(batch.Fills, result)
		batch.CashFlow = batch.CashFlow.Add(result.CashFlow)
		batch.RealizedPnL = batch.RealizedPnL.Add(result.RealizedPnL)
	}
	return batch, nil
}
