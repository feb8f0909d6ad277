package wager

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero min bet", func(c *Config) { c.MinBet = d("0") }, "minBet"},
		{"negative per number", func(c *Config) { c.MaxPerNumber = d("-1") }, "maxPerNumber"},
		{"negative risk", func(c *Config) { c.MaxGlobalRisk = d("-1") }, "maxGlobalRisk"},
		{"negative multiplier", func(c *Config) { c.Multipliers[PositionHead] = d("-70") }, "multiplier"},
		{"close after draw", func(c *Config) { c.Shifts[0].CloseTime = "10:30" }, "close before"},
		{"close equals draw", func(c *Config) { c.Shifts[0].CloseTime = c.Shifts[0].DrawTime }, "close before"},
		{"bad clock", func(c *Config) { c.Shifts[1].DrawTime = "noon" }, "draw time"},
		{"duplicated lottery", func(c *Config) { c.Lotteries = append(c.Lotteries, c.Lotteries[0]) }, "lottery"},
		{"duplicated shift", func(c *Config) { c.Shifts = append(c.Shifts, c.Shifts[0]) }, "shift"},
		{"unknown mode", func(c *Config) { c.PrizeMode = "mixed" }, "prize mode"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"digit mode without rank", func(c *Config) {
			c.PrizeMode = PrizeModeDigits
			c.Multipliers["top3"] = d("20")
		}, "rank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

const rulesYAML = `
min_bet: "200"
max_per_number: "5000"
max_global_risk: "1000000"
multipliers:
  head: "70"
  top5: "14"
  top10: "7"
  top20: "3.5"
lotteries:
  - id: nacional
    name: Nacional
shifts:
  - id: nocturna
    name: Nocturna
    close_time: "20:45"
    draw_time: "21:00"
timezone: UTC
enforce_close_time: true
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.MinBet.Equal(d("200")) || !cfg.MaxPerNumber.Equal(d("5000")) || !cfg.MaxGlobalRisk.Equal(d("1000000")) {
		t.Errorf("limits not parsed: %+v", cfg)
	}
	if !cfg.Multipliers[PositionTop20].Equal(d("3.5")) {
		t.Errorf("top20 = %s", cfg.Multipliers[PositionTop20])
	}
	if len(cfg.Lotteries) != 1 || cfg.Lotteries[0].ID != "nacional" {
		t.Errorf("lotteries = %+v", cfg.Lotteries)
	}
	if len(cfg.Shifts) != 1 || cfg.Shifts[0].CloseTime != "20:45" {
		t.Errorf("shifts = %+v", cfg.Shifts)
	}
	if !cfg.EnforceCloseTime || cfg.Timezone != "UTC" {
		t.Errorf("enforce=%v tz=%s", cfg.EnforceCloseTime, cfg.Timezone)
	}
	if cfg.PrizeMode != PrizeModePosition {
		t.Errorf("prize mode = %s, want default", cfg.PrizeMode)
	}
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def := DefaultConfig()
	if !cfg.MinBet.Equal(def.MinBet) || len(cfg.Shifts) != len(def.Shifts) || len(cfg.Lotteries) != len(def.Lotteries) {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestParse_InvalidRejected(t *testing.T) {
	if _, err := Parse([]byte(`min_bet: "abc"`)); err == nil {
		t.Error("expected error for bad min_bet")
	}
	bad := "shifts:\n  - id: x\n    close_time: \"21:00\"\n    draw_time: \"20:00\"\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Error("expected error for shift closing after draw")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(rulesYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.MinBet.Equal(d("200")) {
		t.Errorf("min bet = %s", cfg.MinBet)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCheckShiftOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	drawDate := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	before := time.Date(2026, 10, 15, 20, 44, 59, 0, time.UTC)
	atClose := time.Date(2026, 10, 15, 20, 45, 0, 0, time.UTC)

	if err := CheckShiftOpen(atClose, drawDate, "nocturna", cfg); err != nil {
		t.Fatalf("enforcement off should accept, got %v", err)
	}

	cfg.EnforceCloseTime = true
	if err := CheckShiftOpen(before, drawDate, "nocturna", cfg); err != nil {
		t.Errorf("before close: %v", err)
	}
	if err := CheckShiftOpen(atClose, drawDate, "nocturna", cfg); CodeOf(err) != CodeShiftClosed {
		t.Errorf("at close: code = %q, want %q", CodeOf(err), CodeShiftClosed)
	}
	// jogada para o dia seguinte continua aberta
	if err := CheckShiftOpen(atClose, drawDate.AddDate(0, 0, 1), "nocturna", cfg); err != nil {
		t.Errorf("next day: %v", err)
	}
	if err := CheckShiftOpen(before, drawDate, "madrugada", cfg); CodeOf(err) != CodeUnknownShift {
		t.Errorf("unknown shift: code = %q", CodeOf(err))
	}
}

func TestParseDrawDate(t *testing.T) {
	cfg := DefaultConfig()
	got, err := ParseDrawDate("2026-10-15", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Location().String() != cfg.Timezone || got.Day() != 15 {
		t.Errorf("got %v", got)
	}
	if _, err := ParseDrawDate("15/10/2026", cfg); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestToday_UsesConfiguredZone(t *testing.T) {
	cfg := DefaultConfig()
	// 01:30 UTC ainda é o dia anterior em Buenos Aires (UTC-3)
	now := time.Date(2026, 10, 16, 1, 30, 0, 0, time.UTC)
	if got := Today(now, cfg); got != "2026-10-15" {
		t.Errorf("today = %s, want 2026-10-15", got)
	}
	cfg.Timezone = "UTC"
	if got := Today(now, cfg); got != "2026-10-16" {
		t.Errorf("today UTC = %s, want 2026-10-16", got)
	}
}

func TestShippedRulesFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("..", "..", "configs", "wager_rules.yaml"))
	if err != nil {
		t.Fatalf("shipped rules: %v", err)
	}
	def := DefaultConfig()
	if !cfg.MinBet.Equal(def.MinBet) || len(cfg.Shifts) != len(def.Shifts) || len(cfg.Lotteries) != len(def.Lotteries) {
		t.Errorf("shipped rules drifted from defaults: %+v", cfg)
	}
	if len(cfg.DigitMultipliers) != len(def.DigitMultipliers) || !cfg.DigitMultipliers[4].Equal(d("3500")) {
		t.Errorf("digit multipliers = %v", cfg.DigitMultipliers)
	}
	if _, ok := cfg.DigitMultipliers[1]; ok {
		t.Error("one-digit plays have no digit multiplier")
	}
}
