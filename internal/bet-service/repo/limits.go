package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/quiniela-platform/internal/wager"
)

// Só o cancelamento libera o limite por número
var stakeStatuses = []string{StatusPending, StatusWon, StatusLost}

// Exposição do sorteio conta apenas prêmios ainda em aberto
var exposureStatuses = []string{StatusPending}

const stakedPerNumberSQL = `
	SELECT COALESCE(SUM(amount), 0) FROM bets
	WHERE lottery=$1 AND shift=$2 AND draw_date=$3 AND number=$4 AND location=$5
	  AND status = ANY($6)`

const drawExposureSQL = `
	SELECT COALESCE(SUM(possible_prize), 0) FROM bets
	WHERE lottery=$1 AND shift=$2 AND draw_date=$3 AND status = ANY($4)`

// limitTotals devolve o que já está gravado para a chave da jogada
type limitTotals interface {
	Staked(w wager.ValidatedWager) (decimal.Decimal, error)
	Exposure(w wager.ValidatedWager) (decimal.Decimal, error)
}

// applyLimits confere as linhas em ordem, somando cada uma às anteriores do
// mesmo ticket. A primeira linha que estoura volta como *LineError.
func applyLimits(date string, lines []Line, totals limitTotals, cfg wager.Config) error {
	staked := map[string]decimal.Decimal{}
	exposure := map[string]decimal.Decimal{}
	for i, l := range lines {
		w := l.Wager

		nk := numberKey(date, w)
		prior, ok := staked[nk]
		if !ok {
			var err error
			if prior, err = totals.Staked(w); err != nil {
				return fmt.Errorf("staked per number: %w", err)
			}
		}
		if err := wager.CheckPerNumberLimit(w, prior, cfg); err != nil {
			return &LineError{Line: i, Err: err}
		}
		staked[nk] = prior.Add(w.Amount)

		dk := drawKey(date, w)
		cur, ok := exposure[dk]
		if !ok {
			var err error
			if cur, err = totals.Exposure(w); err != nil {
				return fmt.Errorf("draw exposure: %w", err)
			}
		}
		if err := wager.CheckGlobalRisk(cur, w.PossiblePrize, cfg); err != nil {
			return &LineError{Line: i, Err: err}
		}
		exposure[dk] = cur.Add(w.PossiblePrize)
	}
	return nil
}

// txTotals lê os totais dentro da transação que segura os advisory locks
type txTotals struct {
	ctx  context.Context
	tx   *sql.Tx
	date string
}

func (t txTotals) Staked(w wager.ValidatedWager) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := t.tx.QueryRowContext(t.ctx, stakedPerNumberSQL,
		w.LotteryID, w.ShiftID, t.date, w.Number, string(w.Position), pq.Array(stakeStatuses),
	).Scan(&v)
	return v, err
}

func (t txTotals) Exposure(w wager.ValidatedWager) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := t.tx.QueryRowContext(t.ctx, drawExposureSQL,
		w.LotteryID, w.ShiftID, t.date, pq.Array(exposureStatuses),
	).Scan(&v)
	return v, err
}
