package wager

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testConfig() Config {
	return Config{
		MinBet: d("100"),
		Multipliers: map[Position]decimal.Decimal{
			PositionHead:  d("70"),
			PositionTop5:  d("14"),
			PositionTop10: d("7"),
			PositionTop20: d("3.5"),
		},
	}
}

func TestValidateWager_HeadScenario(t *testing.T) {
	cfg := testConfig()
	w, err := ValidateWager(Input{Number: "45", Amount: d("500"), Position: PositionHead}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Multiplier.Equal(d("70")) {
		t.Errorf("multiplier = %s, want 70", w.Multiplier)
	}
	if got := ComputePrize(d("500"), PositionHead, cfg); !got.Equal(d("35000")) {
		t.Errorf("ComputePrize = %s, want 35000", got)
	}
	if !w.PossiblePrize.Equal(d("35000")) {
		t.Errorf("possible prize = %s, want 35000", w.PossiblePrize)
	}
}

func TestValidateWager_BelowMinimum(t *testing.T) {
	_, err := ValidateWager(Input{Number: "45", Amount: d("50"), Position: PositionHead}, testConfig())
	if CodeOf(err) != CodeAmountBelowMinimum {
		t.Fatalf("code = %q, want %q", CodeOf(err), CodeAmountBelowMinimum)
	}
}

func TestValidateWager_FiveDigits(t *testing.T) {
	_, err := ValidateWager(Input{Number: "12345", Amount: d("500"), Position: PositionHead}, testConfig())
	if CodeOf(err) != CodeInvalidNumberFormat {
		t.Fatalf("code = %q, want %q", CodeOf(err), CodeInvalidNumberFormat)
	}
}

func TestValidateWager_NumberFormat(t *testing.T) {
	cfg := testConfig()
	bad := []string{"", "12345", "4a", " 12", "12 ", "-1", "1.5", "١٢", "+12"}
	for _, n := range bad {
		_, err := ValidateWager(Input{Number: n, Amount: d("500"), Position: PositionHead}, cfg)
		if CodeOf(err) != CodeInvalidNumberFormat {
			t.Errorf("number %q: code = %q, want %q", n, CodeOf(err), CodeInvalidNumberFormat)
		}
	}
	good := []string{"0", "7", "05", "123", "0000", "9999"}
	for _, n := range good {
		if _, err := ValidateWager(Input{Number: n, Amount: d("500"), Position: PositionHead}, cfg); err != nil {
			t.Errorf("number %q: unexpected error %v", n, err)
		}
	}
}

func TestValidateWager_Amount(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		amount string
		want   Code
	}{
		{"0", CodeInvalidAmount},
		{"-100", CodeInvalidAmount},
		{"100.001", CodeInvalidAmount},
		{"99.99", CodeAmountBelowMinimum},
		{"1", CodeAmountBelowMinimum},
		{"100", ""},
		{"100.50", ""},
	}
	for _, tt := range tests {
		_, err := ValidateWager(Input{Number: "12", Amount: d(tt.amount), Position: PositionTop5}, cfg)
		if got := CodeOf(err); got != tt.want {
			t.Errorf("amount %s: code = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestValidateWager_UnknownPosition(t *testing.T) {
	_, err := ValidateWager(Input{Number: "12", Amount: d("500"), Position: "top3"}, testConfig())
	if CodeOf(err) != CodeUnknownPosition {
		t.Fatalf("code = %q, want %q", CodeOf(err), CodeUnknownPosition)
	}
}

func TestValidateWager_RuleOrder(t *testing.T) {
	// tudo errado: a primeira regra da lista é a reportada
	_, err := ValidateWager(Input{Number: "x", Amount: d("-1"), Position: "nope"}, testConfig())
	if CodeOf(err) != CodeInvalidNumberFormat {
		t.Fatalf("code = %q, want number format first", CodeOf(err))
	}
	_, err = ValidateWager(Input{Number: "12", Amount: d("50"), Position: "nope"}, testConfig())
	if CodeOf(err) != CodeAmountBelowMinimum {
		t.Fatalf("code = %q, want minimum before position", CodeOf(err))
	}
}

func TestValidateWager_LotteryAndShift(t *testing.T) {
	cfg := DefaultConfig()
	in := Input{LotteryID: "nacional", ShiftID: "matutina", Number: "12", Amount: d("100"), Position: PositionHead}
	if _, err := ValidateWager(in, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.LotteryID = "loto"
	if _, err := ValidateWager(in, cfg); CodeOf(err) != CodeUnknownLottery {
		t.Errorf("code = %q, want %q", CodeOf(err), CodeUnknownLottery)
	}

	in.LotteryID = "nacional"
	in.ShiftID = "madrugada"
	if _, err := ValidateWager(in, cfg); CodeOf(err) != CodeUnknownShift {
		t.Errorf("code = %q, want %q", CodeOf(err), CodeUnknownShift)
	}
}

func TestValidateWager_DigitMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrizeMode = PrizeModeDigits
	cfg.Lotteries = nil
	cfg.Shifts = nil

	tests := []struct {
		number string
		pos    Position
		mult   string
	}{
		{"45", PositionHead, "70"},
		{"045", PositionHead, "600"},
		{"1234", PositionHead, "3500"},
		{"1234", PositionTop20, "175"},
		{"45", PositionTop5, "14"},
		{"05", PositionHead, "70"},
	}
	for _, tt := range tests {
		w, err := ValidateWager(Input{Number: tt.number, Amount: d("100"), Position: tt.pos}, cfg)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error %v", tt.number, tt.pos, err)
		}
		if !w.Multiplier.Equal(d(tt.mult)) {
			t.Errorf("%s/%s: multiplier = %s, want %s", tt.number, tt.pos, w.Multiplier, tt.mult)
		}
	}

	// a tabela por dígitos não paga jogadas de um dígito
	if _, err := ValidateWager(Input{Number: "5", Amount: d("100"), Position: PositionHead}, cfg); CodeOf(err) != CodeUnknownDigitCount {
		t.Errorf("code = %q, want %q", CodeOf(err), CodeUnknownDigitCount)
	}
}

func TestComputePrize_MatchesMultiplier(t *testing.T) {
	cfg := testConfig()
	amounts := []string{"1", "100", "333", "1001", "99999"}
	for p, m := range cfg.Multipliers {
		for _, a := range amounts {
			want := d(a).Mul(m)
			if got := ComputePrize(d(a), p, cfg); !got.Equal(want) {
				t.Errorf("ComputePrize(%s, %s) = %s, want %s", a, p, got, want)
			}
		}
	}
}

func TestComputePrize_Monotonic(t *testing.T) {
	cfg := testConfig()
	for p := range cfg.Multipliers {
		prev := ComputePrize(d("1"), p, cfg)
		for a := int64(2); a <= 500; a += 7 {
			cur := ComputePrize(decimal.NewFromInt(a), p, cfg)
			if cur.LessThan(prev) {
				t.Fatalf("%s: prize decreased at amount %d", p, a)
			}
			prev = cur
		}
	}
}

func TestComputePrize_UnknownPositionIsZero(t *testing.T) {
	if got := ComputePrize(d("500"), "top3", testConfig()); !got.IsZero() {
		t.Fatalf("got %s, want 0", got)
	}
}

func TestComputeTicketTotal_Empty(t *testing.T) {
	got := ComputeTicketTotal(nil)
	if !got.TotalStake.IsZero() || !got.TotalPossiblePrize.IsZero() {
		t.Fatalf("got %+v, want zeros", got)
	}
}

func TestComputeTicketTotal_TwoLines(t *testing.T) {
	cfg := testConfig()
	a, err := ValidateWager(Input{Number: "45", Amount: d("500"), Position: PositionHead}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ValidateWager(Input{Number: "12", Amount: d("300"), Position: PositionTop5}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := ComputeTicketTotal([]ValidatedWager{a, b})
	if !got.TotalStake.Equal(d("800")) {
		t.Errorf("stake = %s, want 800", got.TotalStake)
	}
	if !got.TotalPossiblePrize.Equal(d("39200")) {
		t.Errorf("prize = %s, want 39200", got.TotalPossiblePrize)
	}
}

func TestComputeTicketTotal_OrderIndependent(t *testing.T) {
	cfg := testConfig()
	var lines []ValidatedWager
	for i, a := range []string{"101", "250.50", "333", "1000", "117.25"} {
		pos := []Position{PositionHead, PositionTop5, PositionTop10, PositionTop20, PositionTop20}[i]
		w, err := ValidateWager(Input{Number: "12", Amount: d(a), Position: pos}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		lines = append(lines, w)
	}
	want := ComputeTicketTotal(lines)

	reversed := make([]ValidatedWager, len(lines))
	for i := range lines {
		reversed[len(lines)-1-i] = lines[i]
	}
	rotated := append(append([]ValidatedWager{}, lines[2:]...), lines[:2]...)

	for _, perm := range [][]ValidatedWager{reversed, rotated} {
		got := ComputeTicketTotal(perm)
		if !got.TotalStake.Equal(want.TotalStake) || !got.TotalPossiblePrize.Equal(want.TotalPossiblePrize) {
			t.Fatalf("permutation changed totals: %+v vs %+v", got, want)
		}
	}
}

func TestComputeTicketTotal_SumsRoundedLines(t *testing.T) {
	cfg := testConfig()
	// 117.25 * 3.5 = 410.375 -> 410.38 por linha
	w, err := ValidateWager(Input{Number: "12", Amount: d("117.25"), Position: PositionTop20}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !w.PossiblePrize.Equal(d("410.38")) {
		t.Fatalf("line prize = %s, want 410.38", w.PossiblePrize)
	}
	got := ComputeTicketTotal([]ValidatedWager{w, w})
	if !got.TotalPossiblePrize.Equal(d("820.76")) {
		t.Fatalf("total prize = %s, want 820.76", got.TotalPossiblePrize)
	}
}

func TestCheckPerNumberLimit(t *testing.T) {
	cfg := testConfig()
	w, _ := ValidateWager(Input{Number: "45", Amount: d("500"), Position: PositionHead}, cfg)

	if err := CheckPerNumberLimit(w, d("100000"), cfg); err != nil {
		t.Fatalf("no limit configured, got %v", err)
	}

	cfg.MaxPerNumber = d("2000")
	if err := CheckPerNumberLimit(w, d("1500"), cfg); err != nil {
		t.Errorf("exactly at the limit should pass, got %v", err)
	}
	err := CheckPerNumberLimit(w, d("1500.01"), cfg)
	if CodeOf(err) != CodePerNumberLimitExceeded {
		t.Errorf("code = %q, want %q", CodeOf(err), CodePerNumberLimitExceeded)
	}
}

func TestCheckGlobalRisk(t *testing.T) {
	cfg := testConfig()
	if err := CheckGlobalRisk(d("1000000"), d("35000"), cfg); err != nil {
		t.Fatalf("no limit configured, got %v", err)
	}
	cfg.MaxGlobalRisk = d("100000")
	if err := CheckGlobalRisk(d("65000"), d("35000"), cfg); err != nil {
		t.Errorf("at the limit should pass, got %v", err)
	}
	if err := CheckGlobalRisk(d("65000.01"), d("35000"), cfg); CodeOf(err) != CodeGlobalRiskLimitExceeded {
		t.Errorf("code = %q, want %q", CodeOf(err), CodeGlobalRiskLimitExceeded)
	}
}

func TestCodeOf_NonValidationError(t *testing.T) {
	if CodeOf(nil) != "" {
		t.Fatal("nil error should have no code")
	}
}
