package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/quiniela-platform/internal/wager"
)

func TestFallback(t *testing.T) {
	def := wager.DefaultConfig()

	cfg, err := Fallback("")
	if err != nil || !cfg.MinBet.Equal(def.MinBet) {
		t.Fatalf("empty path: cfg=%+v err=%v", cfg, err)
	}

	cfg, err = Fallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if !cfg.MinBet.Equal(def.MinBet) {
		t.Errorf("missing file must fall back to defaults, got %s", cfg.MinBet)
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(`min_bet: "250"`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = Fallback(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.MinBet.Equal(decimal.NewFromInt(250)) {
		t.Errorf("min bet = %s", cfg.MinBet)
	}
}

type memTable struct {
	raw     []byte
	version int64
	onLoad  func()
}

func (m *memTable) Load(context.Context) ([]byte, int64, error) {
	raw, version := m.raw, m.version
	if m.onLoad != nil {
		hook := m.onLoad
		m.onLoad = nil
		hook()
	}
	if raw == nil {
		return nil, 0, sql.ErrNoRows
	}
	return raw, version, nil
}

func (m *memTable) Save(_ context.Context, raw []byte, _ string) (int64, error) {
	m.raw = raw
	m.version++
	return m.version, nil
}

type memCache struct {
	e      entry
	cached bool
	puts   int
}

func (m *memCache) Get(context.Context) (entry, bool, error) { return m.e, m.cached, nil }

func (m *memCache) Put(_ context.Context, e entry) error {
	m.puts++
	if newer(m.e, m.cached, e) {
		m.e, m.cached = e, true
	}
	return nil
}

func TestRules_FallbackWhenNeverSaved(t *testing.T) {
	c := &memCache{}
	s := &Store{table: &memTable{}, cache: c, fallback: wager.DefaultConfig()}

	cfg, err := s.Rules(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.MinBet.Equal(wager.DefaultConfig().MinBet) {
		t.Errorf("min bet = %s", cfg.MinBet)
	}
	if !c.cached || c.e.Version != 0 {
		t.Errorf("cache = %+v", c.e)
	}

	// a primeira gravação substitui o padrão em cache
	saved := wager.DefaultConfig()
	saved.MinBet = decimal.NewFromInt(250)
	if err := s.SaveRules(context.Background(), saved, "uid-admin"); err != nil {
		t.Fatal(err)
	}
	if cfg, _ = s.Rules(context.Background()); !cfg.MinBet.Equal(decimal.NewFromInt(250)) {
		t.Errorf("after save min bet = %s", cfg.MinBet)
	}
}

func TestRules_StaleReaderCannotOverwriteSave(t *testing.T) {
	ctx := context.Background()
	old := wager.DefaultConfig()
	raw, _ := json.Marshal(old)
	tbl := &memTable{raw: raw, version: 1}
	c := &memCache{}
	s := &Store{table: tbl, cache: c, fallback: wager.DefaultConfig()}

	updated := wager.DefaultConfig()
	updated.MinBet = decimal.NewFromInt(500)
	// o leitor já tem a versão antiga em mãos quando o admin salva
	tbl.onLoad = func() {
		if err := s.SaveRules(ctx, updated, "uid-admin"); err != nil {
			t.Fatal(err)
		}
	}

	cfg, err := s.Rules(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.MinBet.Equal(old.MinBet) {
		t.Fatalf("reader got %s, want its own snapshot %s", cfg.MinBet, old.MinBet)
	}
	if c.puts != 2 {
		t.Fatalf("cache puts = %d", c.puts)
	}
	if c.e.Version != 2 || !c.e.Rules.MinBet.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("cache holds version %d min bet %s", c.e.Version, c.e.Rules.MinBet)
	}

	cfg, _ = s.Rules(ctx)
	if !cfg.MinBet.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("next read = %s", cfg.MinBet)
	}
}

func TestSaveRules_RejectsInvalid(t *testing.T) {
	tbl := &memTable{}
	s := &Store{table: tbl, cache: &memCache{}, fallback: wager.DefaultConfig()}
	bad := wager.DefaultConfig()
	bad.MinBet = decimal.NewFromInt(-1)
	if err := s.SaveRules(context.Background(), bad, "uid-admin"); err == nil {
		t.Fatal("invalid rules accepted")
	}
	if tbl.raw != nil {
		t.Fatal("invalid rules persisted")
	}
}

func TestNewer(t *testing.T) {
	tests := []struct {
		name      string
		cur       entry
		cached    bool
		candidate int64
		want      bool
	}{
		{"empty cache", entry{}, false, 0, true},
		{"newer version", entry{Version: 3}, true, 4, true},
		{"same version", entry{Version: 3}, true, 3, false},
		{"older version", entry{Version: 3}, true, 2, false},
		{"default over saved", entry{Version: 3}, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newer(tt.cur, tt.cached, entry{Version: tt.candidate}); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
