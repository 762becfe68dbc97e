package ledger

import (
	"errors"
	"testing"
	"time"

	"portacct/types"

	"github.com/shopspring/decimal"
)

func TestValidateOrder(t *testing.T) {
	snapshot := types.NewMarketSnapshot(time.UnixMilli(10), map[string]decimal.Decimal{
		"AAPL": d("100"),
	})

	// Position under test: 1000 cash, 5 AAPL long, 5 AAPL short.
	setup := func(t *testing.T) *Position {
		pos := newTestPosition(t, "USD", "100000")
		mustOpenLong(t, pos, "AAPL", "100", "5", "0")
		if _, err := pos.OpenShort("AAPL", d("100"), d("5"), d("0"), time.UnixMilli(2)); err != nil {
			t.Fatalf("open short: %v", err)
		}
		pos.Cash = d("1000")
		return pos
	}

	tests := []struct {
		name     string
		order    types.Order
		wantCode ValidationCode // empty means valid
	}{
		{
			name:     "zero quantity",
			order:    types.NewOrder("AAPL", types.EffectOpenLong, types.TypeMarket, d("0"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeInvalidQuantity,
		},
		{
			name:     "market without market data",
			order:    types.NewOrder("MSFT", types.EffectOpenLong, types.TypeMarket, d("1"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeMarketDataMissing,
		},
		{
			name:  "market open long within cash",
			order: types.NewOrder("AAPL", types.EffectOpenLong, types.TypeMarket, d("10"), nil, nil, time.UnixMilli(10)),
		},
		{
			name:     "market open long beyond cash",
			order:    types.NewOrder("AAPL", types.EffectOpenLong, types.TypeMarket, d("11"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeInsufficientCash,
		},
		{
			name:  "market close long within position",
			order: types.NewOrder("AAPL", types.EffectCloseLong, types.TypeMarket, d("5"), nil, nil, time.UnixMilli(10)),
		},
		{
			name:     "market close long beyond position",
			order:    types.NewOrder("AAPL", types.EffectCloseLong, types.TypeMarket, d("6"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeInsufficientPosition,
		},
		{
			name:     "market close long without position",
			order:    types.NewOrder("TSLA", types.EffectCloseLong, types.TypeMarket, d("1"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeMarketDataMissing,
		},
		{
			name:  "market open short without preconditions",
			order: types.NewOrder("AAPL", types.EffectOpenShort, types.TypeMarket, d("1000"), nil, nil, time.UnixMilli(10)),
		},
		{
			name:  "market close short within position and cash",
			order: types.NewOrder("AAPL", types.EffectCloseShort, types.TypeMarket, d("5"), nil, nil, time.UnixMilli(10)),
		},
		{
			name:     "market close short beyond position",
			order:    types.NewOrder("AAPL", types.EffectCloseShort, types.TypeMarket, d("6"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeInsufficientPosition,
		},
		{
			name:     "limit without price",
			order:    types.NewOrder("AAPL", types.EffectOpenLong, types.TypeLimit, d("1"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeMissingPrice,
		},
		{
			name:     "limit with non-positive price",
			order:    types.NewOrder("AAPL", types.EffectOpenLong, types.TypeLimit, d("1"), dp("0"), nil, time.UnixMilli(10)),
			wantCode: CodeInvalidPrice,
		},
		{
			name:  "limit open long uses the limit price",
			order: types.NewOrder("AAPL", types.EffectOpenLong, types.TypeLimit, d("20"), dp("50"), nil, time.UnixMilli(10)),
		},
		{
			name:     "limit close long without position",
			order:    types.NewOrder("TSLA", types.EffectCloseLong, types.TypeLimit, d("1"), dp("50"), nil, time.UnixMilli(10)),
			wantCode: CodePositionNotFound,
		},
		{
			name:     "stop without stop price",
			order:    types.NewOrder("AAPL", types.EffectOpenLong, types.TypeStop, d("1"), nil, nil, time.UnixMilli(10)),
			wantCode: CodeMissingStopPrice,
		},
		{
			name:     "stop with non-positive stop price",
			order:    types.NewOrder("AAPL", types.EffectOpenLong, types.TypeStop, d("1"), nil, dp("-1"), time.UnixMilli(10)),
			wantCode: CodeInvalidStopPrice,
		},
		{
			name:  "stop buy above market",
			order: types.NewOrder("AAPL", types.EffectOpenLong, types.TypeStop, d("1"), nil, dp("110"), time.UnixMilli(10)),
		},
		{
			name:     "stop buy at market is rejected",
			order:    types.NewOrder("AAPL", types.EffectCloseShort, types.TypeStop, d("1"), nil, dp("100"), time.UnixMilli(10)),
			wantCode: CodeInvalidStopDirection,
		},
		{
			name:  "stop sell below market",
			order: types.NewOrder("AAPL", types.EffectCloseLong, types.TypeStop, d("1"), nil, dp("90"), time.UnixMilli(10)),
		},
		{
			name:     "stop sell above market is rejected",
			order:    types.NewOrder("AAPL", types.EffectOpenShort, types.TypeStop, d("1"), nil, dp("110"), time.UnixMilli(10)),
			wantCode: CodeInvalidStopDirection,
		},
		{
			name:     "stop limit without limit price",
			order:    types.NewOrder("AAPL", types.EffectOpenLong, types.TypeStopLimit, d("1"), nil, dp("110"), time.UnixMilli(10)),
			wantCode: CodeMissingPrice,
		},
		{
			name:  "stop limit with both prices",
			order: types.NewOrder("AAPL", types.EffectOpenLong, types.TypeStopLimit, d("1"), dp("109"), dp("110"), time.UnixMilli(10)),
		},
		{
			// No cash check at placement: sufficiency is deferred until the
			// stop triggers.
			name:  "stop open long ignores cash",
			order: types.NewOrder("AAPL", types.EffectOpenLong, types.TypeStop, d("1000000"), nil, dp("110"), time.UnixMilli(10)),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := setup(t)
			result, err := ValidateOrder(tc.order, pos, snapshot)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantCode == "" {
				if !result.Valid() {
					t.Fatalf("order rejected: %v", result.Err)
				}
				return
			}
			if result.Valid() {
				t.Fatalf("order accepted, want rejection %s", tc.wantCode)
			}
			if result.Err.Code != tc.wantCode {
				t.Fatalf("got code %s (%v), want %s", result.Err.Code, result.Err, tc.wantCode)
			}
		})
	}
}

func TestValidateOrderCloseLongPositionNotFound(t *testing.T) {
	snapshot := types.NewMarketSnapshot(time.UnixMilli(10), map[string]decimal.Decimal{
		"TSLA": d("200"),
	})
	pos := newTestPosition(t, "USD", "1000")

	result, err := ValidateOrder(types.NewOrder("TSLA", types.EffectCloseLong, types.TypeMarket, d("1"), nil, nil, time.UnixMilli(10)), pos, snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid() || result.Err.Code != CodePositionNotFound {
		t.Fatalf("got %+v, want %s", result.Err, CodePositionNotFound)
	}
	if result.Err.PositionType != PositionLong {
		t.Fatalf("got position type %s, want %s", result.Err.PositionType, PositionLong)
	}
}

func TestValidateOrderDoesNotMutate(t *testing.T) {
	snapshot := types.NewMarketSnapshot(time.UnixMilli(10), map[string]decimal.Decimal{
		"AAPL": d("100"),
	})
	pos := newTestPosition(t, "USD", "100000")
	mustOpenLong(t, pos, "AAPL", "100", "5", "0")
	cashBefore, qtyBefore := pos.Cash, pos.Long["AAPL"].Quantity

	if _, err := ValidateOrder(types.NewOrder("AAPL", types.EffectCloseLong, types.TypeMarket, d("5"), nil, nil, time.UnixMilli(10)), pos, snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "cash", pos.Cash, cashBefore)
	assertDecimal(t, "quantity", pos.Long["AAPL"].Quantity, qtyBefore)
}

func TestValidateOrderMalformed(t *testing.T) {
	snapshot := types.NewMarketSnapshot(time.UnixMilli(10), map[string]decimal.Decimal{
		"AAPL": d("100"),
	})
	pos := newTestPosition(t, "USD", "1000")

	unknownType := types.NewOrder("AAPL", types.EffectOpenLong, types.OrderType("ICEBERG"), d("1"), nil, nil, time.UnixMilli(10))
	if _, err := ValidateOrder(unknownType, pos, snapshot); !errors.Is(err, ErrUnknownOrderType) {
		t.Fatalf("got error %v, want %v", err, ErrUnknownOrderType)
	}

	unknownEffect := types.NewOrder("AAPL", types.PositionEffect("HEDGE"), types.TypeMarket, d("1"), nil, nil, time.UnixMilli(10))
	if _, err := ValidateOrder(unknownEffect, pos, snapshot); !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("got error %v, want %v", err, ErrUnknownEffect)
	}
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}
