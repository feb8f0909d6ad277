package wager

import (
	"regexp"

	"github.com/shopspring/decimal"
)

const (
	maxDigits = 4
	// casas decimais da moeda; cada prêmio é arredondado aqui antes de ser somado
	currencyPlaces = 2
)

var numberPattern = regexp.MustCompile(`^[0-9]{1,4}$`)

// Input é a jogada como chega do formulário ou da entrada rápida via WhatsApp.
// Number é mantido como texto: zeros à esquerda contam como dígitos.
type Input struct {
	LotteryID string
	ShiftID   string
	Position  Position
	Number    string
	Amount    decimal.Decimal
}

// ValidatedWager é uma jogada que passou por ValidateWager, com o multiplicador
// resolvido e o prêmio possível já calculado.
type ValidatedWager struct {
	Input
	Multiplier    decimal.Decimal
	PossiblePrize decimal.Decimal
}

// Digits devolve a quantidade de dígitos jogados.
func (w ValidatedWager) Digits() int { return len(w.Number) }

// Totals é o resumo de um ticket.
type Totals struct {
	TotalStake         decimal.Decimal `json:"totalStake"`
	TotalPossiblePrize decimal.Decimal `json:"totalPossiblePrize"`
}

// ValidateWager aplica as regras na ordem e para na primeira falha:
// formato do número, valor positivo, aposta mínima, posição conhecida e,
// quando a configuração enumera loterias e turnos, a pertença a eles.
func ValidateWager(in Input, cfg Config) (ValidatedWager, error) {
	if !numberPattern.MatchString(in.Number) {
		return ValidatedWager{}, invalid(CodeInvalidNumberFormat, "number")
	}
	if !in.Amount.IsPositive() || !in.Amount.Equal(in.Amount.Round(currencyPlaces)) {
		return ValidatedWager{}, invalid(CodeInvalidAmount, "amount")
	}
	if in.Amount.LessThan(cfg.MinBet) {
		return ValidatedWager{}, overLimit(CodeAmountBelowMinimum, "amount", cfg.MinBet)
	}
	base, ok := cfg.Multipliers[in.Position]
	if !ok {
		return ValidatedWager{}, invalid(CodeUnknownPosition, "position")
	}
	if len(cfg.Lotteries) > 0 && !cfg.HasLottery(in.LotteryID) {
		return ValidatedWager{}, invalid(CodeUnknownLottery, "lottery")
	}
	if len(cfg.Shifts) > 0 {
		if _, ok := cfg.ShiftByID(in.ShiftID); !ok {
			return ValidatedWager{}, invalid(CodeUnknownShift, "shift")
		}
	}

	multiplier := base
	if cfg.PrizeMode == PrizeModeDigits {
		m, err := digitMultiplier(in.Position, len(in.Number), cfg)
		if err != nil {
			return ValidatedWager{}, err
		}
		multiplier = m
	}

	return ValidatedWager{
		Input:         in,
		Multiplier:    multiplier,
		PossiblePrize: in.Amount.Mul(multiplier).Round(currencyPlaces),
	}, nil
}

func digitMultiplier(p Position, digits int, cfg Config) (decimal.Decimal, error) {
	m, ok := cfg.DigitMultipliers[digits]
	if !ok {
		return decimal.Decimal{}, invalid(CodeUnknownDigitCount, "number")
	}
	r, ok := rank[p]
	if !ok {
		return decimal.Decimal{}, invalid(CodeUnknownPosition, "position")
	}
	return m.Div(decimal.NewFromInt(r)), nil
}

// ComputePrize calcula amount * multiplicador da posição pela tabela canônica.
// Não valida: posição desconhecida resulta em zero.
func ComputePrize(amount decimal.Decimal, p Position, cfg Config) decimal.Decimal {
	return amount.Mul(cfg.Multipliers[p]).Round(currencyPlaces)
}

// ComputeTicketTotal soma apostas e prêmios já arredondados de cada linha.
func ComputeTicketTotal(lines []ValidatedWager) Totals {
	t := Totals{TotalStake: decimal.Zero, TotalPossiblePrize: decimal.Zero}
	for _, l := range lines {
		t.TotalStake = t.TotalStake.Add(l.Amount)
		t.TotalPossiblePrize = t.TotalPossiblePrize.Add(l.PossiblePrize)
	}
	return t
}

// CheckPerNumberLimit recebe o total já apostado na mesma combinação
// (loteria, turno, data, número, posição). A leitura consistente desse total
// é responsabilidade de quem chama.
func CheckPerNumberLimit(w ValidatedWager, alreadyStaked decimal.Decimal, cfg Config) error {
	if cfg.MaxPerNumber.IsZero() {
		return nil
	}
	if alreadyStaked.Add(w.Amount).GreaterThan(cfg.MaxPerNumber) {
		return overLimit(CodePerNumberLimitExceeded, "amount", cfg.MaxPerNumber)
	}
	return nil
}

// CheckGlobalRisk compara a exposição pendente do sorteio (soma dos prêmios
// possíveis) mais o prêmio novo contra o teto configurado.
func CheckGlobalRisk(currentExposure, additionalPrize decimal.Decimal, cfg Config) error {
	if cfg.MaxGlobalRisk.IsZero() {
		return nil
	}
	if currentExposure.Add(additionalPrize).GreaterThan(cfg.MaxGlobalRisk) {
		return overLimit(CodeGlobalRiskLimitExceeded, "possiblePrize", cfg.MaxGlobalRisk)
	}
	return nil
}
