package wager

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Position é a ubicación da jogada: define o multiplicador do prêmio.
type Position string

const (
	PositionHead  Position = "head"
	PositionTop5  Position = "top5"
	PositionTop10 Position = "top10"
	PositionTop20 Position = "top20"
)

// rank é o id numérico da posição, usado como divisor no modo por dígitos.
var rank = map[Position]int64{
	PositionHead:  1,
	PositionTop5:  5,
	PositionTop10: 10,
	PositionTop20: 20,
}

// PrizeMode seleciona a tabela de multiplicadores.
type PrizeMode string

const (
	// PrizeModePosition é a tabela canônica: multiplicador fixo por posição.
	PrizeModePosition PrizeMode = "position"
	// PrizeModeDigits é a tabela alternativa por quantidade de dígitos,
	// dividida pelo rank da posição. Só vale quando configurada explicitamente.
	PrizeModeDigits PrizeMode = "digits"
)

type Lottery struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Shift é um turno diário de sorteio. CloseTime e DrawTime no formato "15:04",
// no fuso horário da configuração.
type Shift struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CloseTime string `json:"closeTime"`
	DrawTime  string `json:"drawTime"`
}

// Config agrupa as regras ajustáveis pelo operador (tela "Límites y Riesgo").
// MaxPerNumber e MaxGlobalRisk iguais a zero significam sem limite.
type Config struct {
	MinBet           decimal.Decimal              `json:"minBet"`
	MaxPerNumber     decimal.Decimal              `json:"maxPerNumber"`
	MaxGlobalRisk    decimal.Decimal              `json:"maxGlobalRisk"`
	Multipliers      map[Position]decimal.Decimal `json:"multipliers"`
	PrizeMode        PrizeMode                    `json:"prizeMode"`
	DigitMultipliers map[int]decimal.Decimal      `json:"digitMultipliers,omitempty"`
	Lotteries        []Lottery                    `json:"lotteries"`
	Shifts           []Shift                      `json:"shifts"`
	Timezone         string                       `json:"timezone"`
	EnforceCloseTime bool                         `json:"enforceCloseTime"`
}

// DefaultConfig devolve a tabela canônica e o calendário padrão de turnos.
func DefaultConfig() Config {
	return Config{
		MinBet: decimal.NewFromInt(100),
		Multipliers: map[Position]decimal.Decimal{
			PositionHead:  decimal.NewFromInt(70),
			PositionTop5:  decimal.NewFromInt(14),
			PositionTop10: decimal.NewFromInt(7),
			PositionTop20: decimal.RequireFromString("3.5"),
		},
		PrizeMode: PrizeModePosition,
		DigitMultipliers: map[int]decimal.Decimal{
			2: decimal.NewFromInt(70),
			3: decimal.NewFromInt(600),
			4: decimal.NewFromInt(3500),
		},
		Lotteries: []Lottery{
			{ID: "nacional", Name: "Nacional"},
			{ID: "provincia", Name: "Provincia"},
			{ID: "santa_fe", Name: "Santa Fe"},
			{ID: "cordoba", Name: "Córdoba"},
			{ID: "entre_rios", Name: "Entre Ríos"},
			{ID: "montevideo", Name: "Montevideo"},
		},
		Shifts: []Shift{
			{ID: "previa", Name: "La Previa", CloseTime: "10:00", DrawTime: "10:15"},
			{ID: "primera", Name: "Primera", CloseTime: "11:45", DrawTime: "12:00"},
			{ID: "matutina", Name: "Matutina", CloseTime: "14:45", DrawTime: "15:00"},
			{ID: "vespertina", Name: "Vespertina", CloseTime: "17:45", DrawTime: "18:00"},
			{ID: "nocturna", Name: "Nocturna", CloseTime: "20:45", DrawTime: "21:00"},
		},
		Timezone: "America/Argentina/Buenos_Aires",
	}
}

// Validate confere a coerência da configuração antes de ela ser persistida.
func (c Config) Validate() error {
	if !c.MinBet.IsPositive() {
		return errors.New("minBet must be positive")
	}
	if c.MaxPerNumber.IsNegative() {
		return errors.New("maxPerNumber must not be negative")
	}
	if c.MaxGlobalRisk.IsNegative() {
		return errors.New("maxGlobalRisk must not be negative")
	}
	if len(c.Multipliers) == 0 {
		return errors.New("multipliers must not be empty")
	}
	for p, m := range c.Multipliers {
		if m.IsNegative() {
			return fmt.Errorf("multiplier for %q must not be negative", p)
		}
	}
	switch c.PrizeMode {
	case "", PrizeModePosition:
	case PrizeModeDigits:
		if len(c.DigitMultipliers) == 0 {
			return errors.New("digit mode requires digitMultipliers")
		}
		for p := range c.Multipliers {
			if _, ok := rank[p]; !ok {
				return fmt.Errorf("digit mode has no rank for position %q", p)
			}
		}
		for d, m := range c.DigitMultipliers {
			if d < 1 || d > maxDigits {
				return fmt.Errorf("digit count %d out of range", d)
			}
			if m.IsNegative() {
				return fmt.Errorf("digit multiplier for %d must not be negative", d)
			}
		}
	default:
		return fmt.Errorf("unknown prize mode %q", c.PrizeMode)
	}

	seen := map[string]bool{}
	for _, l := range c.Lotteries {
		if l.ID == "" || seen[l.ID] {
			return fmt.Errorf("lottery id %q empty or duplicated", l.ID)
		}
		seen[l.ID] = true
	}

	seen = map[string]bool{}
	for _, s := range c.Shifts {
		if s.ID == "" || seen[s.ID] {
			return fmt.Errorf("shift id %q empty or duplicated", s.ID)
		}
		seen[s.ID] = true
		closeAt, err := time.Parse(clockLayout, s.CloseTime)
		if err != nil {
			return fmt.Errorf("shift %q close time: %w", s.ID, err)
		}
		drawAt, err := time.Parse(clockLayout, s.DrawTime)
		if err != nil {
			return fmt.Errorf("shift %q draw time: %w", s.ID, err)
		}
		if !closeAt.Before(drawAt) {
			return fmt.Errorf("shift %q must close before its draw", s.ID)
		}
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	return nil
}

func (c Config) HasLottery(id string) bool {
	for _, l := range c.Lotteries {
		if l.ID == id {
			return true
		}
	}
	return false
}

// ShiftByID procura um turno configurado.
func (c Config) ShiftByID(id string) (Shift, bool) {
	for _, s := range c.Shifts {
		if s.ID == id {
			return s, true
		}
	}
	return Shift{}, false
}

func (c Config) location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
