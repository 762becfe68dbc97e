package ledger

import (
	"fmt"
	"time"

	"portacct/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio is a thin multi-currency container: one Position per currency,
// created lazily and never deleted. All accounting is delegated to the
// Position methods; the portfolio only routes by currency.
type Portfolio struct {
	ID        string
	Name      string
	Positions map[string]*Position
	Modified  time.Time
}

func NewPortfolio(name string) *Portfolio {
	return &Portfolio{
		ID:        uuid.NewString(),
		Name:      name,
		Positions: make(map[string]*Position),
	}
}

// Position returns the cash account for currency, creating it with a zero
// balance on first use.
func (pf *Portfolio) Position(currency string) (*Position, error) {
	if pos, ok := pf.Positions[currency]; ok {
		return pos, nil
	}
	pos, err := NewPosition(currency, decimal.Zero)
	if err != nil {
		return nil, err
	}
	pf.Positions[currency] = pos
	return pos, nil
}

// Deposit credits cash to the currency's account, creating it if needed.
func (pf *Portfolio) Deposit(currency string, amount decimal.Decimal, at time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount %s must be positive", ErrInvalidParameter, amount)
	}
	pos, err := pf.Position(currency)
	if err != nil {
		return err
	}
	pos.Cash = pos.Cash.Add(amount)
	pos.Modified = at
	pf.Modified = at
	return nil
}

// Withdraw debits cash from the currency's account. The balance is signed;
// drawing it negative is the caller's decision to make.
func (pf *Portfolio) Withdraw(currency string, amount decimal.Decimal, at time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal amount %s must be positive", ErrInvalidParameter, amount)
	}
	pos, err := pf.Position(currency)
	if err != nil {
		return err
	}
	pos.Cash = pos.Cash.Sub(amount)
	pos.Modified = at
	pf.Modified = at
	return nil
}

// ApplyFill routes the fill to the position of the currency its symbol
// trades in, per the universe's reference data.
func (pf *Portfolio) ApplyFill(u *Universe, fill types.Fill, strategy types.CloseStrategy) (FillResult, error) {
	currency, ok := u.Currency(fill.Symbol)
	if !ok {
		return FillResult{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, fill.Symbol)
	}
	pos, err := pf.Position(currency)
	if err != nil {
		return FillResult{}, err
	}
	result, err := pos.ApplyFill(fill, strategy)
	if err != nil {
		return FillResult{}, err
	}
	pf.Modified = fill.Created
	return result, nil
}

// ApplyFills folds an ordered fill sequence through ApplyFill, accumulating
// cash flow and realized PnL across currencies.
func (pf *Portfolio) ApplyFills(u *Universe, fills []types.Fill, strategy types.CloseStrategy) (BatchResult, error) {
	var batch BatchResult
	for _, fill := range fills {
		result, err := pf.ApplyFill(u, fill, strategy)
		if err != nil {
			return batch, fmt.Errorf("apply fill %s %s: %w", fill.Effect, fill.Symbol, err)
		}
		batch.Fills = append(batch.Fills, result)
		batch.CashFlow = batch.CashFlow.Add(result.CashFlow)
		batch.RealizedPnL = batch.RealizedPnL.Add(result.RealizedPnL)
	}
	return batch, nil
}

// MarketValue appraises every currency account against the snapshot and
// returns the values keyed by currency.
func (pf *Portfolio) MarketValue(snap types.MarketSnapshot) map[string]decimal.Decimal {
	values := make(map[string]decimal.Decimal, len(pf.Positions))
	for currency, pos := range pf.Positions {
		values[currency] = pos.MarketValue(snap)
	}
	return values
}

// View returns a read-only snapshot of the whole portfolio.
func (pf *Portfolio) View(at time.Time) types.PortfolioView {
	view := types.PortfolioView{
		ID:        pf.ID,
		Name:      pf.Name,
		Time:      at,
		Positions: make(map[string]types.PositionView, len(pf.Positions)),
	}
	for currency, pos := range pf.Positions {
		view.Positions[currency] = pos.View()
	}
	return view
}
