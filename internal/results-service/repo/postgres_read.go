package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/radieske/quiniela-platform/internal/results-service/dto"
)

var ErrNotFound = errors.New("not found")

type ReadRepo struct {
	DB *sql.DB
}

const resultColumns = `lottery_name, lottery_type, to_char(draw_date, 'YYYY-MM-DD'), numbers, updated_at`

func (r *ReadRepo) ListByDate(ctx context.Context, drawDate string) ([]dto.Result, error) {
	const q = `
		SELECT ` + resultColumns + `
		FROM results
		WHERE draw_date = $1
		ORDER BY lottery_name, lottery_type;
	`
	rows, err := r.DB.QueryContext(ctx, q, drawDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.Result{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *ReadRepo) Get(ctx context.Context, lottery, typ, drawDate string) (dto.Result, error) {
	const q = `
		SELECT ` + resultColumns + `
		FROM results
		WHERE lottery_name = $1 AND lottery_type = $2 AND draw_date = $3;
	`
	res, err := scanResult(r.DB.QueryRowContext(ctx, q, lottery, typ, drawDate))
	if errors.Is(err, sql.ErrNoRows) {
		return dto.Result{}, ErrNotFound
	}
	return res, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (dto.Result, error) {
	var (
		res  dto.Result
		nums pq.Int64Array
	)
	if err := s.Scan(&res.LotteryName, &res.LotteryType, &res.DrawDate, &nums, &res.UpdatedAt); err != nil {
		return dto.Result{}, err
	}
	res.Numbers = make([]int, len(nums))
	for i, n := range nums {
		res.Numbers[i] = int(n)
	}
	return res, nil
}
