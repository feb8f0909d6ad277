package repo

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/quiniela-platform/internal/wager"
)

func TestLockKeys_SameNumberDifferentLocation(t *testing.T) {
	w := wager.ValidatedWager{Input: wager.Input{LotteryID: "nacional", ShiftID: "nocturna", Number: "0042", Position: wager.PositionHead}}
	other := w
	other.Position = wager.PositionTop5

	if numberKey("2026-10-15", w) == numberKey("2026-10-15", other) {
		t.Fatal("number keys must differ by location")
	}
	if drawKey("2026-10-15", w) != drawKey("2026-10-15", other) {
		t.Fatal("draw key must be shared by the whole draw")
	}
	// "42" e "0042" são jogadas diferentes
	short := w
	short.Number = "42"
	if numberKey("2026-10-15", w) == numberKey("2026-10-15", short) {
		t.Fatal("leading zeros must be part of the key")
	}
}

func TestLineError_Unwrap(t *testing.T) {
	inner := &wager.ValidationError{Code: wager.CodePerNumberLimitExceeded, Field: "amount", Limit: decimal.NewFromInt(5000)}
	err := error(&LineError{Line: 2, Err: inner})

	if wager.CodeOf(err) != wager.CodePerNumberLimitExceeded {
		t.Fatalf("code = %q", wager.CodeOf(err))
	}
	var le *LineError
	if !errors.As(err, &le) || le.Line != 2 {
		t.Fatalf("line error not found: %v", err)
	}
}

func TestSummaryProfit(t *testing.T) {
	s := Summary{Sales: decimal.RequireFromString("12500"), Prizes: decimal.RequireFromString("7000")}
	if !s.Profit().Equal(decimal.RequireFromString("5500")) {
		t.Fatalf("profit = %s", s.Profit())
	}
}
