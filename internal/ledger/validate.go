package ledger

import (
	"fmt"

	"portacct/types"

	"github.com/shopspring/decimal"
)

type ValidationCode string

const (
	CodeInsufficientCash     ValidationCode = "INSUFFICIENT_CASH"
	CodeInsufficientPosition ValidationCode = "INSUFFICIENT_POSITION"
	CodePositionNotFound     ValidationCode = "POSITION_NOT_FOUND"
	CodeInvalidPrice         ValidationCode = "INVALID_PRICE"
	CodeInvalidQuantity      ValidationCode = "INVALID_QUANTITY"
	CodeInvalidStopPrice     ValidationCode = "INVALID_STOP_PRICE"
	CodeMissingPrice         ValidationCode = "MISSING_PRICE"
	CodeMissingStopPrice     ValidationCode = "MISSING_STOP_PRICE"
	CodeMarketDataMissing    ValidationCode = "MARKET_DATA_MISSING"
	CodeInvalidStopDirection ValidationCode = "INVALID_STOP_DIRECTION"
)

type PositionKind string

const (
	PositionLong  PositionKind = "LONG"
	PositionShort PositionKind = "SHORT"
)

type StopDirection string

const (
	StopAboveMarket StopDirection = "ABOVE_MARKET"
	StopBelowMarket StopDirection = "BELOW_MARKET"
)

// OrderValidationError is the typed rejection reason carried by a
// ValidationResult. Code discriminates which detail fields are set.
type OrderValidationError struct {
	Code              ValidationCode
	Symbol            string
	PositionType      PositionKind
	Required          decimal.Decimal
	Available         decimal.Decimal
	Value             *decimal.Decimal
	StopPrice         decimal.Decimal
	CurrentPrice      decimal.Decimal
	ExpectedDirection StopDirection
}

func (e *OrderValidationError) Error() string {
	switch e.Code {
	case CodeInsufficientCash:
		return fmt.Sprintf("insufficient cash: required %s, available %s", e.Required, e.Available)
	case CodeInsufficientPosition:
		return fmt.Sprintf("insufficient %s position in %s: required %s, available %s", e.PositionType, e.Symbol, e.Required, e.Available)
	case CodePositionNotFound:
		return fmt.Sprintf("no %s position in %s", e.PositionType, e.Symbol)
	case CodeInvalidPrice:
		return fmt.Sprintf("invalid price %s", e.Value)
	case CodeInvalidQuantity:
		return fmt.Sprintf("invalid quantity %s", e.Value)
	case CodeInvalidStopPrice:
		return fmt.Sprintf("invalid stop price %s", e.Value)
	case CodeMissingPrice:
		return "order price is required"
	case CodeMissingStopPrice:
		return "stop price is required"
	case CodeMarketDataMissing:
		return fmt.Sprintf("no market data for %s", e.Symbol)
	case CodeInvalidStopDirection:
		return fmt.Sprintf("stop price %s must be %s the current price %s", e.StopPrice, e.ExpectedDirection, e.CurrentPrice)
	}
	return string(e.Code)
}

// ValidationResult is a value, never a thrown error: order checking is a
// high-volume path and rejections are ordinary outcomes, not exceptions.
type ValidationResult struct {
	Err *OrderValidationError
}

func (r ValidationResult) Valid() bool { return r.Err == nil }

func valid() ValidationResult { return ValidationResult{} }

func invalid(err *OrderValidationError) ValidationResult { return ValidationResult{Err: err} }

// ValidateOrder checks, without mutating anything, whether the order could
// legally execute against the position and the price snapshot. The returned
// error channel is reserved for malformed orders (unknown type or effect);
// every business outcome lands in the ValidationResult.
func ValidateOrder(order types.Order, p *Position, snap types.MarketSnapshot) (ValidationResult, error) {
	if !order.Quantity.IsPositive() {
		qty := order.Quantity
		return invalid(&OrderValidationError{Code: CodeInvalidQuantity, Value: &qty}), nil
	}

	switch order.Type {
	case types.TypeMarket:
		price, ok := snap.Price(order.Symbol)
		if !ok {
			return invalid(&OrderValidationError{Code: CodeMarketDataMissing, Symbol: order.Symbol}), nil
		}
		return validateAgainstPrice(order, p, price)

	case types.TypeLimit:
		if order.Price == nil {
			return invalid(&OrderValidationError{Code: CodeMissingPrice}), nil
		}
		if !order.Price.IsPositive() {
			value := *order.Price
			return invalid(&OrderValidationError{Code: CodeInvalidPrice, Value: &value}), nil
		}
		return validateAgainstPrice(order, p, *order.Price)

	case types.TypeStop, types.TypeStopLimit:
		return validateStop(order, snap)
	}
	return ValidationResult{}, fmt.Errorf("%w: %q", ErrUnknownOrderType, order.Type)
}

// validateAgainstPrice applies the effect-specific cash and position checks
// at the given reference price (market price for MARKET, limit price for
// LIMIT orders).
func validateAgainstPrice(order types.Order, p *Position, price decimal.Decimal) (ValidationResult, error) {
	switch order.Effect {
	case types.EffectOpenLong:
		required := price.Mul(order.Quantity)
		if p.Cash.LessThan(required) {
			return invalid(&OrderValidationError{Code: CodeInsufficientCash, Required: required, Available: p.Cash}), nil
		}

	case types.EffectCloseLong:
		lp := p.Long[order.Symbol]
		if lp == nil {
			return invalid(&OrderValidationError{Code: CodePositionNotFound, Symbol: order.Symbol, PositionType: PositionLong}), nil
		}
		if lp.Quantity.LessThan(order.Quantity) {
			return invalid(&OrderValidationError{
				Code:         CodeInsufficientPosition,
				Symbol:       order.Symbol,
				PositionType: PositionLong,
				Required:     order.Quantity,
				Available:    lp.Quantity,
			}), nil
		}

	case types.EffectOpenShort:
		// No precondition: opening a short needs neither cash nor inventory.

	case types.EffectCloseShort:
		sp := p.Short[order.Symbol]
		if sp == nil {
			return invalid(&OrderValidationError{Code: CodePositionNotFound, Symbol: order.Symbol, PositionType: PositionShort}), nil
		}
		if sp.Quantity.LessThan(order.Quantity) {
			return invalid(&OrderValidationError{
				Code:         CodeInsufficientPosition,
				Symbol:       order.Symbol,
				PositionType: PositionShort,
				Required:     order.Quantity,
				Available:    sp.Quantity,
			}), nil
		}
		required := price.Mul(order.Quantity)
		if p.Cash.LessThan(required) {
			return invalid(&OrderValidationError{Code: CodeInsufficientCash, Required: required, Available: p.Cash}), nil
		}

	default:
		return ValidationResult{}, fmt.Errorf("%w: %q", ErrUnknownEffect, order.Effect)
	}
	return valid(), nil
}

// validateStop checks only direction sanity for stop orders. Cash and
// position sufficiency are deliberately deferred to the validation of the
// triggered order once the stop fires.
func validateStop(order types.Order, snap types.MarketSnapshot) (ValidationResult, error) {
	if order.StopPrice == nil {
		return invalid(&OrderValidationError{Code: CodeMissingStopPrice}), nil
	}
	if !order.StopPrice.IsPositive() {
		value := *order.StopPrice
		return invalid(&OrderValidationError{Code: CodeInvalidStopPrice, Value: &value}), nil
	}
	if order.Type == types.TypeStopLimit {
		if order.Price == nil {
			return invalid(&OrderValidationError{Code: CodeMissingPrice}), nil
		}
		if !order.Price.IsPositive() {
			value := *order.Price
			return invalid(&OrderValidationError{Code: CodeInvalidPrice, Value: &value}), nil
		}
	}
	current, ok := snap.Price(order.Symbol)
	if !ok {
		return invalid(&OrderValidationError{Code: CodeMarketDataMissing, Symbol: order.Symbol}), nil
	}

	switch order.Effect {
	case types.EffectOpenLong, types.EffectCloseShort:
		// Stop-buy triggers when the market rises to the stop price.
		if !order.StopPrice.GreaterThan(current) {
			return invalid(&OrderValidationError{
				Code:              CodeInvalidStopDirection,
				StopPrice:         *order.StopPrice,
				CurrentPrice:      current,
				ExpectedDirection: StopAboveMarket,
			}), nil
		}
	case types.EffectCloseLong, types.EffectOpenShort:
		if !order.StopPrice.LessThan(current) {
			return invalid(&OrderValidationError{
				Code:              CodeInvalidStopDirection,
				StopPrice:         *order.StopPrice,
				CurrentPrice:      current,
				ExpectedDirection: StopBelowMarket,
			}), nil
		}
	default:
		return ValidationResult{}, fmt.Errorf("%w: %q", ErrUnknownEffect, order.Effect)
	}
	return valid(), nil
}
