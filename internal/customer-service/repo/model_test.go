package repo

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSigned(t *testing.T) {
	amount := decimal.RequireFromString("250.50")
	tests := []struct {
		kind string
		want string
	}{
		{KindPayment, "250.5"},
		{KindPrize, "250.5"},
		{KindRefund, "250.5"},
		{KindCharge, "-250.5"},
	}
	for _, tt := range tests {
		if got := Signed(tt.kind, amount); !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("%s: got %s, want %s", tt.kind, got, tt.want)
		}
	}
	if ValidKind("DEPOSIT") {
		t.Error("unknown kind accepted")
	}
}

func TestReservedRef(t *testing.T) {
	for ref, want := range map[string]bool{
		"ticket:abc":   true,
		"prize:b-1":    true,
		"refund:b-1":   true,
		"manual:x":     false,
		"recibo-12":    false,
		"prizes-march": false,
	} {
		if got := ReservedRef(ref); got != want {
			t.Errorf("%s: got %v, want %v", ref, got, want)
		}
	}
}

func TestSameMovement(t *testing.T) {
	m := Movement{Kind: KindPrize, Amount: decimal.RequireFromString("7000.00")}
	if !SameMovement(m, KindPrize, decimal.NewFromInt(7000)) {
		t.Error("equal amounts with different scale must match")
	}
	if SameMovement(m, KindCharge, decimal.NewFromInt(7000)) {
		t.Error("kind mismatch accepted")
	}
	if SameMovement(m, KindPrize, decimal.NewFromInt(1)) {
		t.Error("amount mismatch accepted")
	}
}
