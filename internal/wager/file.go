package wager

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// fileConfig espelha o arquivo YAML de regras. Valores monetários vêm como
// texto para não passar por float.
type fileConfig struct {
	MinBet           string            `yaml:"min_bet"`
	MaxPerNumber     string            `yaml:"max_per_number"`
	MaxGlobalRisk    string            `yaml:"max_global_risk"`
	PrizeMode        string            `yaml:"prize_mode"`
	Multipliers      map[string]string `yaml:"multipliers"`
	DigitMultipliers map[int]string    `yaml:"digit_multipliers"`
	Lotteries        []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"lotteries"`
	Shifts []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		CloseTime string `yaml:"close_time"`
		DrawTime  string `yaml:"draw_time"`
	} `yaml:"shifts"`
	Timezone         string `yaml:"timezone"`
	EnforceCloseTime *bool  `yaml:"enforce_close_time"`
}

// LoadFile lê o arquivo de regras. Chaves ausentes mantêm os valores de DefaultConfig.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(b)
}

// Parse interpreta o conteúdo YAML das regras e valida o resultado.
func Parse(b []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return Config{}, fmt.Errorf("parse rules yaml: %w", err)
	}

	cfg := DefaultConfig()
	var err error
	if cfg.MinBet, err = money(fc.MinBet, cfg.MinBet); err != nil {
		return Config{}, fmt.Errorf("min_bet: %w", err)
	}
	if cfg.MaxPerNumber, err = money(fc.MaxPerNumber, cfg.MaxPerNumber); err != nil {
		return Config{}, fmt.Errorf("max_per_number: %w", err)
	}
	if cfg.MaxGlobalRisk, err = money(fc.MaxGlobalRisk, cfg.MaxGlobalRisk); err != nil {
		return Config{}, fmt.Errorf("max_global_risk: %w", err)
	}
	if fc.PrizeMode != "" {
		cfg.PrizeMode = PrizeMode(fc.PrizeMode)
	}
	if len(fc.Multipliers) > 0 {
		cfg.Multipliers = make(map[Position]decimal.Decimal, len(fc.Multipliers))
		for p, v := range fc.Multipliers {
			m, err := decimal.NewFromString(v)
			if err != nil {
				return Config{}, fmt.Errorf("multiplier %s: %w", p, err)
			}
			cfg.Multipliers[Position(p)] = m
		}
	}
	if len(fc.DigitMultipliers) > 0 {
		cfg.DigitMultipliers = make(map[int]decimal.Decimal, len(fc.DigitMultipliers))
		for d, v := range fc.DigitMultipliers {
			m, err := decimal.NewFromString(v)
			if err != nil {
				return Config{}, fmt.Errorf("digit multiplier %d: %w", d, err)
			}
			cfg.DigitMultipliers[d] = m
		}
	}
	if len(fc.Lotteries) > 0 {
		cfg.Lotteries = cfg.Lotteries[:0:0]
		for _, l := range fc.Lotteries {
			cfg.Lotteries = append(cfg.Lotteries, Lottery{ID: l.ID, Name: l.Name})
		}
	}
	if len(fc.Shifts) > 0 {
		cfg.Shifts = cfg.Shifts[:0:0]
		for _, s := range fc.Shifts {
			cfg.Shifts = append(cfg.Shifts, Shift{ID: s.ID, Name: s.Name, CloseTime: s.CloseTime, DrawTime: s.DrawTime})
		}
	}
	if fc.Timezone != "" {
		cfg.Timezone = fc.Timezone
	}
	if fc.EnforceCloseTime != nil {
		cfg.EnforceCloseTime = *fc.EnforceCloseTime
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func money(s string, def decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return def, nil
	}
	return decimal.NewFromString(s)
}
