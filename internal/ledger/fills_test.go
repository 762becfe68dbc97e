package ledger

import (
	"errors"
	"testing"
	"time"

	"portacct/types"
)

func TestApplyFill(t *testing.T) {
	tests := []struct {
		name     string
		fills    []types.Fill
		wantFlow string
		wantPnL  string
	}{
		{
			name: "open long reports negative cash flow and zero pnl",
			fills: []types.Fill{
				types.NewFill("AAPL", types.EffectOpenLong, d("100"), d("10"), d("100"), time.UnixMilli(1)),
			},
			wantFlow: "-1100",
			wantPnL:  "0",
		},
		{
			name: "close long reports proceeds and realized pnl",
			fills: []types.Fill{
				types.NewFill("AAPL", types.EffectOpenLong, d("100"), d("10"), d("100"), time.UnixMilli(1)),
				types.NewFill("AAPL", types.EffectCloseLong, d("150"), d("10"), d("150"), time.UnixMilli(2)),
			},
			wantFlow: "250", // -1100 + (1500-150)
			wantPnL:  "250", // 1350 - 1100
		},
		{
			name: "open short reports positive cash flow",
			fills: []types.Fill{
				types.NewFill("AAPL", types.EffectOpenShort, d("100"), d("10"), d("100"), time.UnixMilli(1)),
			},
			wantFlow: "900",
			wantPnL:  "0",
		},
		{
			name: "close short reports buyback cost and realized pnl",
			fills: []types.Fill{
				types.NewFill("AAPL", types.EffectOpenShort, d("100"), d("10"), d("100"), time.UnixMilli(1)),
				types.NewFill("AAPL", types.EffectCloseShort, d("80"), d("10"), d("80"), time.UnixMilli(2)),
			},
			wantFlow: "20", // 900 - 880
			wantPnL:  "20",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := newTestPosition(t, "USD", "100000")
			batch, err := pos.ApplyFills(tc.fills, types.CloseFIFO)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(batch.Fills) != len(tc.fills) {
				t.Fatalf("got %d results, want %d", len(batch.Fills), len(tc.fills))
			}
			assertDecimal(t, "cash flow", batch.CashFlow, d(tc.wantFlow))
			assertDecimal(t, "realized pnl", batch.RealizedPnL, d(tc.wantPnL))
			if len(pos.Fills) != len(tc.fills) {
				t.Fatalf("got %d recorded fills, want %d", len(pos.Fills), len(tc.fills))
			}
			assertConservation(t, pos)
		})
	}
}

func TestApplyFillsSequencing(t *testing.T) {
	// Later fills must observe the lot state left by earlier ones: the close
	// in the middle consumes the first lot under FIFO, so the final close
	// consumes the second.
	pos := newTestPosition(t, "USD", "100000")
	fills := []types.Fill{
		types.NewFill("AAPL", types.EffectOpenLong, d("100"), d("10"), d("0"), time.UnixMilli(1)),
		types.NewFill("AAPL", types.EffectOpenLong, d("120"), d("10"), d("0"), time.UnixMilli(2)),
		types.NewFill("AAPL", types.EffectCloseLong, d("130"), d("10"), d("0"), time.UnixMilli(3)),
		types.NewFill("AAPL", types.EffectCloseLong, d("130"), d("10"), d("0"), time.UnixMilli(4)),
	}

	batch, err := pos.ApplyFills(fills, types.CloseFIFO)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "first close pnl", batch.Fills[2].RealizedPnL, d("300"))
	assertDecimal(t, "second close pnl", batch.Fills[3].RealizedPnL, d("100"))
	assertDecimal(t, "total pnl", batch.RealizedPnL, d("400"))
	if pos.Long["AAPL"] != nil {
		t.Fatal("fully closed position must be removed")
	}
}

func TestApplyFillsStopsAtFirstError(t *testing.T) {
	pos := newTestPosition(t, "USD", "100000")
	fills := []types.Fill{
		types.NewFill("AAPL", types.EffectOpenLong, d("100"), d("10"), d("0"), time.UnixMilli(1)),
		types.NewFill("MSFT", types.EffectCloseLong, d("100"), d("10"), d("0"), time.UnixMilli(2)),
		types.NewFill("AAPL", types.EffectOpenLong, d("100"), d("10"), d("0"), time.UnixMilli(3)),
	}

	batch, err := pos.ApplyFills(fills, types.CloseFIFO)
	if !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("got error %v, want %v", err, ErrPositionNotFound)
	}
	if len(batch.Fills) != 1 {
		t.Fatalf("got %d applied fills, want 1", len(batch.Fills))
	}
	// The third fill must not have been applied.
	assertDecimal(t, "quantity", pos.Long["AAPL"].Quantity, d("10"))
}

func TestApplyFillUnknownEffect(t *testing.T) {
	pos := newTestPosition(t, "USD", "100000")
	fill := types.Fill{Symbol: "AAPL", Effect: types.PositionEffect("HEDGE"), Price: d("1"), Quantity: d("1"), Created: time.UnixMilli(1)}

	if _, err := pos.ApplyFill(fill, types.CloseFIFO); !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("got error %v, want %v", err, ErrUnknownEffect)
	}
	if len(pos.Fills) != 0 {
		t.Fatal("rejected fill must not be recorded")
	}
}
