package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/quiniela-platform/internal/shared/cache"
	"github.com/radieske/quiniela-platform/internal/wager"
)

const (
	keyWagerRules = "wager_rules"
	cacheKey      = "settings:" + keyWagerRules + ":v2"
)

// entry é o valor guardado no Redis; Version vem de settings.updated_at
// (zero para o padrão do arquivo).
type entry struct {
	Version int64        `json:"version"`
	Rules   wager.Config `json:"rules"`
}

// newer diz se candidate pode substituir o que está em cache
func newer(cur entry, cached bool, candidate entry) bool {
	return !cached || candidate.Version > cur.Version
}

type table interface {
	// Load devolve sql.ErrNoRows quando as regras nunca foram salvas
	Load(ctx context.Context) (raw []byte, version int64, err error)
	Save(ctx context.Context, raw []byte, updatedBy string) (version int64, err error)
}

type rulesCache interface {
	Get(ctx context.Context) (entry, bool, error)
	// Put só grava se e for mais nova que a entrada atual
	Put(ctx context.Context, e entry) error
}

// Store é a fonte única das regras de aposta: Postgres como verdade,
// Redis como cache compartilhado e o arquivo YAML como padrão inicial.
type Store struct {
	table    table
	cache    rulesCache
	fallback wager.Config
}

func NewStore(db *sql.DB, rdb *redis.Client, ttl time.Duration, fallback wager.Config) *Store {
	s := &Store{table: pgTable{db: db}, fallback: fallback}
	if rdb != nil {
		s.cache = redisCache{rdb: rdb, ttl: ttl}
	}
	return s
}

// Rules devolve a configuração vigente.
func (s *Store) Rules(ctx context.Context) (wager.Config, error) {
	if s.cache != nil {
		if e, ok, err := s.cache.Get(ctx); err == nil && ok {
			return e.Rules, nil
		}
	}

	var e entry
	raw, version, err := s.table.Load(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		e.Rules = s.fallback
	case err != nil:
		return wager.Config{}, fmt.Errorf("load rules: %w", err)
	default:
		if err := json.Unmarshal(raw, &e.Rules); err != nil {
			return wager.Config{}, fmt.Errorf("decode rules: %w", err)
		}
		e.Version = version
	}

	if s.cache != nil {
		// falha de cache não impede a leitura
		_ = s.cache.Put(ctx, e)
	}
	return e.Rules, nil
}

// SaveRules valida, persiste e publica a nova versão no cache de todos os serviços.
func (s *Store) SaveRules(ctx context.Context, cfg wager.Config, updatedBy string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	version, err := s.table.Save(ctx, raw, updatedBy)
	if err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, entry{Version: version, Rules: cfg}); err != nil {
			return fmt.Errorf("refresh rules cache: %w", err)
		}
	}
	return nil
}

type pgTable struct{ db *sql.DB }

func (t pgTable) Load(ctx context.Context) ([]byte, int64, error) {
	var (
		raw []byte
		at  time.Time
	)
	err := t.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM settings WHERE key=$1`, keyWagerRules).Scan(&raw, &at)
	return raw, at.UnixMicro(), err
}

func (t pgTable) Save(ctx context.Context, raw []byte, updatedBy string) (int64, error) {
	var at time.Time
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, clock_timestamp())
		ON CONFLICT (key) DO UPDATE SET
		  value      = EXCLUDED.value,
		  updated_by = EXCLUDED.updated_by,
		  updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		keyWagerRules, raw, updatedBy,
	).Scan(&at)
	return at.UnixMicro(), err
}

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func (c redisCache) Get(ctx context.Context) (entry, bool, error) {
	var e entry
	ok, err := cache.GetJSON(ctx, c.rdb, cacheKey, &e)
	return e, ok, err
}

// Put compara e grava sob WATCH; outra escrita no meio reinicia a comparação.
func (c redisCache) Put(ctx context.Context, e entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	put := func(tx *redis.Tx) error {
		var cur entry
		b, err := tx.Get(ctx, cacheKey).Bytes()
		cached := err == nil
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cached && json.Unmarshal(b, &cur) != nil {
			cached = false
		}
		if !newer(cur, cached, e) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, cacheKey, raw, c.ttl)
			return nil
		})
		return err
	}
	for i := 0; i < 3; i++ {
		err = c.rdb.Watch(ctx, put, cacheKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// Fallback carrega o arquivo YAML de regras padrão. Sem arquivo, ou com
// arquivo inválido, devolve DefaultConfig junto com o erro para o chamador logar.
func Fallback(path string) (wager.Config, error) {
	if path == "" {
		return wager.DefaultConfig(), nil
	}
	cfg, err := wager.LoadFile(path)
	if err != nil {
		return wager.DefaultConfig(), err
	}
	return cfg, nil
}
