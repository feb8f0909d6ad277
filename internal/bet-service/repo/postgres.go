package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/radieske/quiniela-platform/internal/wager"
)

// Postgres implementa a persistência de agências e apostas
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const betColumns = `id, ticket_id, agency_id, profile_id, COALESCE(customer_id::text, ''),
	lottery, shift, to_char(draw_date, 'YYYY-MM-DD'), number, location,
	amount, multiplier, possible_prize, origin, payment_method, payment_ref, status,
	created_at, updated_at`

// EnsureAgency cria a agência do usuário ou atualiza o email; created indica inserção.
func (p *Postgres) EnsureAgency(ctx context.Context, ownerUID, email, name string) (a Agency, created bool, err error) {
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO agencies (id, owner_uid, email, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_uid) DO UPDATE SET
		  email      = EXCLUDED.email,
		  name       = CASE WHEN EXCLUDED.name = '' THEN agencies.name ELSE EXCLUDED.name END,
		  updated_at = NOW()
		RETURNING id, owner_uid, email, name, created_at, (xmax = 0)`,
		uuid.NewString(), ownerUID, email, name,
	).Scan(&a.ID, &a.OwnerUID, &a.Email, &a.Name, &a.CreatedAt, &created)
	return a, created, err
}

// AgencyByOwner busca a agência do usuário; nunca cria.
func (p *Postgres) AgencyByOwner(ctx context.Context, ownerUID string) (Agency, error) {
	var a Agency
	err := p.db.QueryRowContext(ctx,
		`SELECT id, owner_uid, email, name, created_at FROM agencies WHERE owner_uid=$1`, ownerUID,
	).Scan(&a.ID, &a.OwnerUID, &a.Email, &a.Name, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Agency{}, ErrAgencyNotProvisioned
	}
	return a, err
}

// CustomerBelongsTo confirma que o cliente é da agência.
func (p *Postgres) CustomerBelongsTo(ctx context.Context, agencyID, customerID string) (bool, error) {
	var ok bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE id=$1 AND agency_id=$2)`, customerID, agencyID,
	).Scan(&ok)
	return ok, err
}

// CreateTicket grava todas as linhas numa única transação.
// Os totais por número e a exposição do sorteio são lidos sob advisory locks
// da transação, então duas gravações concorrentes nunca enxergam o mesmo total.
func (p *Postgres) CreateTicket(ctx context.Context, t *Ticket, cfg wager.Config) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockKeys(ctx, tx, t); err != nil {
		return err
	}

	if err := applyLimits(t.DrawDate, t.Lines, txTotals{ctx: ctx, tx: tx, date: t.DrawDate}, cfg); err != nil {
		return err
	}

	for i := range t.Lines {
		l := &t.Lines[i]
		l.BetID = uuid.NewString()
		w := l.Wager
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bets (id, ticket_id, agency_id, profile_id, customer_id,
			                  lottery, shift, draw_date, number, location,
			                  amount, multiplier, possible_prize, origin, payment_method, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,'pending')`,
			l.BetID, t.ID, t.AgencyID, t.ProfileID, nullable(t.CustomerID),
			w.LotteryID, w.ShiftID, t.DrawDate, w.Number, string(w.Position),
			w.Amount, w.Multiplier, w.PossiblePrize, t.Origin, t.PaymentMethod,
		); err != nil {
			return fmt.Errorf("insert bet: %w", err)
		}
	}
	return tx.Commit()
}

// lockKeys pega os advisory locks em ordem fixa para não haver deadlock
// entre tickets que compartilham números.
func lockKeys(ctx context.Context, tx *sql.Tx, t *Ticket) error {
	seen := map[string]bool{}
	var keys []string
	for _, l := range t.Lines {
		for _, k := range []string{numberKey(t.DrawDate, l.Wager), drawKey(t.DrawDate, l.Wager)} {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, k); err != nil {
			return fmt.Errorf("advisory lock %s: %w", k, err)
		}
	}
	return nil
}

func numberKey(date string, w wager.ValidatedWager) string {
	return strings.Join([]string{"num", w.LotteryID, w.ShiftID, date, w.Number, string(w.Position)}, ":")
}

func drawKey(date string, w wager.ValidatedWager) string {
	return strings.Join([]string{"draw", w.LotteryID, w.ShiftID, date}, ":")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SetPaymentRef associa a preferência de pagamento às linhas do ticket.
func (p *Postgres) SetPaymentRef(ctx context.Context, ticketID, ref string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE bets SET payment_ref=$2, updated_at=NOW() WHERE ticket_id=$1`, ticketID, ref)
	return err
}

// CancelTicket cancela as linhas ainda pendentes, liberando limites e exposição.
func (p *Postgres) CancelTicket(ctx context.Context, ticketID, changedBy string) error {
	_, err := p.db.ExecContext(ctx, `
		WITH upd AS (
		  UPDATE bets SET status='cancelled', updated_at=NOW()
		  WHERE ticket_id=$1 AND status='pending'
		  RETURNING id
		)
		INSERT INTO bet_transactions (bet_id, old_status, new_status, changed_by)
		SELECT id, 'pending', 'cancelled', $2 FROM upd`,
		ticketID, changedBy)
	return err
}

// GetBet retorna uma aposta; agencyID vazio dispensa o filtro (uso administrativo).
func (p *Postgres) GetBet(ctx context.Context, agencyID, betID string) (Bet, error) {
	q := `SELECT ` + betColumns + ` FROM bets WHERE id=$1`
	args := []any{betID}
	if agencyID != "" {
		q += ` AND agency_id=$2`
		args = append(args, agencyID)
	}
	b, err := scanBet(p.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Bet{}, ErrNotFound
	}
	return b, err
}

// ListBets lista as apostas da agência, mais recentes primeiro.
func (p *Postgres) ListBets(ctx context.Context, agencyID string, f BetFilter) ([]Bet, error) {
	q := `SELECT ` + betColumns + ` FROM bets WHERE agency_id=$1`
	args := []any{agencyID}
	if f.DrawDate != "" {
		args = append(args, f.DrawDate)
		q += fmt.Sprintf(` AND draw_date=$%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if f.TicketID != "" {
		args = append(args, f.TicketID)
		q += fmt.Sprintf(` AND ticket_id=$%d`, len(args))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus move uma aposta pendente para won, lost ou cancelled e
// registra a transição. Devolve a aposta atualizada e o status anterior.
func (p *Postgres) UpdateStatus(ctx context.Context, betID, newStatus, changedBy string) (Bet, string, error) {
	switch newStatus {
	case StatusWon, StatusLost, StatusCancelled:
	default:
		return Bet{}, "", ErrInvalidTransition
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, "", err
	}
	defer tx.Rollback()

	var old string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bets WHERE id=$1 FOR UPDATE`, betID).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return Bet{}, "", ErrNotFound
	} else if err != nil {
		return Bet{}, "", err
	}
	if old != StatusPending {
		return Bet{}, old, ErrInvalidTransition
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE bets SET status=$2, updated_at=NOW() WHERE id=$1`, betID, newStatus); err != nil {
		return Bet{}, "", err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bet_transactions (bet_id, old_status, new_status, changed_by) VALUES ($1,$2,$3,$4)`,
		betID, old, newStatus, changedBy); err != nil {
		return Bet{}, "", err
	}

	b, err := scanBet(tx.QueryRowContext(ctx, `SELECT `+betColumns+` FROM bets WHERE id=$1`, betID))
	if err != nil {
		return Bet{}, "", err
	}
	if err = tx.Commit(); err != nil {
		return Bet{}, "", err
	}
	return b, old, nil
}

// RevertStatus desfaz uma transição cujo evento não pôde ser publicado.
// Só age se a aposta ainda estiver em from.
func (p *Postgres) RevertStatus(ctx context.Context, betID, from, to, changedBy string) error {
	_, err := p.db.ExecContext(ctx, `
		WITH upd AS (
		  UPDATE bets SET status=$3, updated_at=NOW()
		  WHERE id=$1 AND status=$2
		  RETURNING id
		)
		INSERT INTO bet_transactions (bet_id, old_status, new_status, changed_by)
		SELECT id, $2, $3, $4 FROM upd`,
		betID, from, to, changedBy)
	return err
}

// Summary soma vendas (apostas não canceladas) e prêmios (apostas ganhas) do período.
func (p *Postgres) Summary(ctx context.Context, agencyID, from, to string) (Summary, error) {
	s := Summary{From: from, To: to}
	err := p.db.QueryRowContext(ctx, `
		SELECT
		  COALESCE(SUM(amount) FILTER (WHERE status <> 'cancelled'), 0),
		  COALESCE(SUM(possible_prize) FILTER (WHERE status = 'won'), 0),
		  COUNT(*) FILTER (WHERE status <> 'cancelled'),
		  COUNT(*) FILTER (WHERE status = 'pending'),
		  COUNT(*) FILTER (WHERE status = 'won'),
		  COUNT(*) FILTER (WHERE status = 'lost'),
		  COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM bets
		WHERE agency_id=$1 AND draw_date BETWEEN $2 AND $3`,
		agencyID, from, to,
	).Scan(&s.Sales, &s.Prizes, &s.Bets, &s.Pending, &s.Won, &s.Lost, &s.Cancelled)
	return s, err
}

// Daily agrupa o resumo por data de sorteio.
func (p *Postgres) Daily(ctx context.Context, agencyID, from, to string) ([]DailySales, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT to_char(draw_date, 'YYYY-MM-DD'),
		  COALESCE(SUM(amount) FILTER (WHERE status <> 'cancelled'), 0),
		  COALESCE(SUM(possible_prize) FILTER (WHERE status = 'won'), 0),
		  COUNT(*) FILTER (WHERE status <> 'cancelled')
		FROM bets
		WHERE agency_id=$1 AND draw_date BETWEEN $2 AND $3
		GROUP BY draw_date
		ORDER BY draw_date`,
		agencyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.DrawDate, &d.Sales, &d.Prizes, &d.Bets); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(row scanner) (Bet, error) {
	var b Bet
	err := row.Scan(&b.ID, &b.TicketID, &b.AgencyID, &b.ProfileID, &b.CustomerID,
		&b.Lottery, &b.Shift, &b.DrawDate, &b.Number, &b.Location,
		&b.Amount, &b.Multiplier, &b.PossiblePrize, &b.Origin, &b.PaymentMethod, &b.PaymentRef, &b.Status,
		&b.CreatedAt, &b.UpdatedAt)
	return b, err
}
