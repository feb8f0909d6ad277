package repo

import (
	"context"
	"time"

	"github.com/lib/pq"
)

// Result é o extracto oficial de um sorteio: 20 números na ordem sorteada.
type Result struct {
	LotteryName string
	LotteryType string
	DrawDate    string
	Numbers     []int
	PublishedBy string
	UpdatedAt   time.Time
}

// UpsertResult grava o resultado; publicar de novo o mesmo sorteio corrige os números
func (p *Postgres) UpsertResult(ctx context.Context, r Result) (Result, error) {
	nums := make(pq.Int64Array, len(r.Numbers))
	for i, n := range r.Numbers {
		nums[i] = int64(n)
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO results (lottery_name, lottery_type, draw_date, numbers, published_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (lottery_name, lottery_type, draw_date) DO UPDATE SET
		  numbers      = EXCLUDED.numbers,
		  published_by = EXCLUDED.published_by,
		  updated_at   = EXCLUDED.updated_at
		RETURNING updated_at`,
		r.LotteryName, r.LotteryType, r.DrawDate, nums, r.PublishedBy,
	).Scan(&r.UpdatedAt)
	return r, err
}

// DeleteResult retira um resultado publicado por engano
func (p *Postgres) DeleteResult(ctx context.Context, lottery, typ, drawDate string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM results WHERE lottery_name=$1 AND lottery_type=$2 AND draw_date=$3`,
		lottery, typ, drawDate)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
