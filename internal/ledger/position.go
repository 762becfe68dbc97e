package ledger

import (
	"errors"
	"fmt"
	"time"

	"portacct/types"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Global error declarations. These indicate caller invariant violations and
// are returned immediately; business validation outcomes go through
// ValidateOrder instead.
var (
	ErrPositionNotFound     = errors.New("no open position for symbol")
	ErrInsufficientQuantity = errors.New("close quantity exceeds open quantity")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrUnknownEffect        = errors.New("unknown position effect")
	ErrUnknownOrderType     = errors.New("unknown order type")
	ErrUnknownSymbol        = errors.New("symbol not in universe")
	ErrInvalidCurrency      = errors.New("invalid currency code")
)

// Position is a single-currency account: a signed cash balance plus the open
// long and short books, keyed by symbol. All mutating methods assume
// exclusive access; callers sharing a Position across goroutines must
// serialize externally.
type Position struct {
	Currency        string
	Cash            decimal.Decimal
	Long            map[string]*LongPosition
	Short           map[string]*ShortPosition
	TotalCommission decimal.Decimal
	RealizedPnL     decimal.Decimal
	Fills           []types.Fill
	Modified        time.Time
}

func NewPosition(currency string, initialCash decimal.Decimal) (*Position, error) {
	if currency == "" {
		return nil, fmt.Errorf("%w: empty code", ErrInvalidCurrency)
	}
	return &Position{
		Currency: currency,
		Cash:     initialCash,
		Long:     make(map[string]*LongPosition),
		Short:    make(map[string]*ShortPosition),
	}, nil
}

// CashMoney renders the cash balance in minor units for display. Currency
// codes go-money does not know (crypto quote currencies) fall back to a
// two-digit fraction.
func (p *Position) CashMoney() *money.Money {
	fraction := 2
	if c := money.GetCurrency(p.Currency); c != nil {
		fraction = c.Fraction
	}
	return money.New(p.Cash.Shift(int32(fraction)).Round(0).IntPart(), p.Currency)
}

func checkTrade(price, quantity, commission decimal.Decimal) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity %s must be positive", ErrInvalidParameter, quantity)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price %s must be positive", ErrInvalidParameter, price)
	}
	if commission.IsNegative() {
		return fmt.Errorf("%w: commission %s must not be negative", ErrInvalidParameter, commission)
	}
	return nil
}

func checkStrategy(strategy types.CloseStrategy) error {
	if strategy != types.CloseFIFO && strategy != types.CloseLIFO {
		return fmt.Errorf("%w: close strategy %q", ErrInvalidParameter, strategy)
	}
	return nil
}

// OpenLong appends a new long lot for symbol and pays for it from cash. The
// lot's cost is price*quantity plus the commission. Returns the (negative)
// cash flow.
func (p *Position) OpenLong(symbol string, price, quantity, commission decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if err := checkTrade(price, quantity, commission); err != nil {
		return decimal.Zero, err
	}

	cost := price.Mul(quantity).Add(commission)
	lp := p.Long[symbol]
	if lp == nil {
		lp = &LongPosition{Symbol: symbol}
		p.Long[symbol] = lp
	}
	lp.Lots = append(lp.Lots, &Lot{Quantity: quantity, Price: price, Basis: cost, Opened: at})
	lp.Quantity = lp.Quantity.Add(quantity)
	lp.TotalCost = lp.TotalCost.Add(cost)
	lp.recompute()

	p.Cash = p.Cash.Sub(cost)
	p.TotalCommission = p.TotalCommission.Add(commission)
	p.Modified = at
	return cost.Neg(), nil
}

// CloseLong sells quantity out of the symbol's long lots, consuming them in
// FIFO or LIFO order, and returns the realized profit or loss.
func (p *Position) CloseLong(symbol string, price, quantity, commission decimal.Decimal, strategy types.CloseStrategy, at time.Time) (decimal.Decimal, error) {
	if err := checkTrade(price, quantity, commission); err != nil {
		return decimal.Zero, err
	}
	if err := checkStrategy(strategy); err != nil {
		return decimal.Zero, err
	}
	lp := p.Long[symbol]
	if lp == nil {
		return decimal.Zero, fmt.Errorf("%w: long %s", ErrPositionNotFound, symbol)
	}
	if quantity.GreaterThan(lp.Quantity) {
		return decimal.Zero, fmt.Errorf("%w: long %s has %s, close wants %s", ErrInsufficientQuantity, symbol, lp.Quantity, quantity)
	}

	proceeds := price.Mul(quantity).Sub(commission)
	survivors, costConsumed := consumeLots(lp.Lots, quantity, strategy)
	pnl := proceeds.Sub(costConsumed)

	lp.Lots = survivors
	lp.Quantity = lp.Quantity.Sub(quantity)
	lp.TotalCost = lp.TotalCost.Sub(costConsumed)
	lp.RealizedPnL = lp.RealizedPnL.Add(pnl)
	lp.recompute()
	if len(lp.Lots) == 0 {
		delete(p.Long, symbol)
	}

	p.Cash = p.Cash.Add(proceeds)
	p.RealizedPnL = p.RealizedPnL.Add(pnl)
	p.TotalCommission = p.TotalCommission.Add(commission)
	p.Modified = at
	return pnl, nil
}

// OpenShort appends a new short lot for symbol and credits the sale proceeds
// (price*quantity minus commission) to cash. Returns the (positive) cash flow.
func (p *Position) OpenShort(symbol string, price, quantity, commission decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if err := checkTrade(price, quantity, commission); err != nil {
		return decimal.Zero, err
	}

	proceeds := price.Mul(quantity).Sub(commission)
	sp := p.Short[symbol]
	if sp == nil {
		sp = &ShortPosition{Symbol: symbol}
		p.Short[symbol] = sp
	}
	sp.Lots = append(sp.Lots, &Lot{Quantity: quantity, Price: price, Basis: proceeds, Opened: at})
	sp.Quantity = sp.Quantity.Add(quantity)
	sp.TotalProceeds = sp.TotalProceeds.Add(proceeds)
	sp.recompute()

	p.Cash = p.Cash.Add(proceeds)
	p.TotalCommission = p.TotalCommission.Add(commission)
	p.Modified = at
	return proceeds, nil
}

// CloseShort buys back quantity out of the symbol's short lots, consuming
// them in FIFO or LIFO order, and returns the realized profit or loss.
func (p *Position) CloseShort(symbol string, price, quantity, commission decimal.Decimal, strategy types.CloseStrategy, at time.Time) (decimal.Decimal, error) {
	if err := checkTrade(price, quantity, commission); err != nil {
		return decimal.Zero, err
	}
	if err := checkStrategy(strategy); err != nil {
		return decimal.Zero, err
	}
	sp := p.Short[symbol]
	if sp == nil {
		return decimal.Zero, fmt.Errorf("%w: short %s", ErrPositionNotFound, symbol)
	}
	if quantity.GreaterThan(sp.Quantity) {
		return decimal.Zero, fmt.Errorf("%w: short %s has %s, close wants %s", ErrInsufficientQuantity, symbol, sp.Quantity, quantity)
	}

	cost := price.Mul(quantity).Add(commission)
	survivors, proceedsConsumed := consumeLots(sp.Lots, quantity, strategy)
	pnl := proceedsConsumed.Sub(cost)

	sp.Lots = survivors
	sp.Quantity = sp.Quantity.Sub(quantity)
	sp.TotalProceeds = sp.TotalProceeds.Sub(proceedsConsumed)
	sp.RealizedPnL = sp.RealizedPnL.Add(pnl)
	sp.recompute()
	if len(sp.Lots) == 0 {
		delete(p.Short, symbol)
	}

	p.Cash = p.Cash.Sub(cost)
	p.RealizedPnL = p.RealizedPnL.Add(pnl)
	p.TotalCommission = p.TotalCommission.Add(commission)
	p.Modified = at
	return pnl, nil
}

// View returns a read-only snapshot of the position.
func (p *Position) View() types.PositionView {
	view := types.PositionView{
		Currency:        p.Currency,
		Cash:            p.Cash,
		RealizedPnL:     p.RealizedPnL,
		TotalCommission: p.TotalCommission,
		Long:            make(map[string]types.HoldingSnapshot),
		Short:           make(map[string]types.HoldingSnapshot),
	}
	for sym, lp := range p.Long {
		view.Long[sym] = types.HoldingSnapshot{
			Symbol:       sym,
			Quantity:     lp.Quantity,
			AverageBasis: lp.AverageCost,
			RealizedPnL:  lp.RealizedPnL,
			Lots:         len(lp.Lots),
		}
	}
	for sym, sp := range p.Short {
		view.Short[sym] = types.HoldingSnapshot{
			Symbol:       sym,
			Quantity:     sp.Quantity,
			AverageBasis: sp.AverageProceeds,
			RealizedPnL:  sp.RealizedPnL,
			Lots:         len(sp.Lots),
		}
	}
	return view
}
