package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Postgres implementa a conta corrente dos clientes em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrNotFound             = errors.New("not found")
	ErrAgencyNotProvisioned = errors.New("agency not provisioned")
	ErrInvalidMovement      = errors.New("invalid movement")
)

// AgencyIDByOwner resolve a agência do usuário autenticado
func (p *Postgres) AgencyIDByOwner(ctx context.Context, ownerUID string) (string, error) {
	var id string
	err := p.db.QueryRowContext(ctx, `SELECT id FROM agencies WHERE owner_uid=$1`, ownerUID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrAgencyNotProvisioned
	}
	return id, err
}

// Create cadastra um cliente com saldo zero
func (p *Postgres) Create(ctx context.Context, agencyID, name, phone string) (Customer, error) {
	c := Customer{ID: uuid.NewString(), AgencyID: agencyID, Name: name, Phone: phone, Balance: decimal.Zero}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, agency_id, name, phone, balance, version)
		VALUES ($1, $2, $3, $4, 0, 1)
		RETURNING created_at`,
		c.ID, agencyID, name, phone,
	).Scan(&c.CreatedAt)
	return c, err
}

// List retorna os clientes da agência em ordem alfabética
func (p *Postgres) List(ctx context.Context, agencyID string) ([]Customer, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, agency_id, name, phone, balance, created_at
		FROM customers WHERE agency_id=$1 ORDER BY name`, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.AgencyID, &c.Name, &c.Phone, &c.Balance, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get busca um cliente; agencyID vazio dispensa o filtro (uso interno do worker)
func (p *Postgres) Get(ctx context.Context, agencyID, id string) (Customer, error) {
	q := `SELECT id, agency_id, name, phone, balance, created_at FROM customers WHERE id=$1`
	args := []any{id}
	if agencyID != "" {
		q += ` AND agency_id=$2`
		args = append(args, agencyID)
	}
	var c Customer
	err := p.db.QueryRowContext(ctx, q, args...).Scan(&c.ID, &c.AgencyID, &c.Name, &c.Phone, &c.Balance, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

// Apply registra um movimento e atualiza o saldo com lock pessimista na linha do cliente.
// Idempotente por (customer_id, external_ref): repetir a mesma referência devolve o
// movimento original com applied=false. Referência repetida com tipo ou valor
// diferente é ErrInvalidMovement.
func (p *Postgres) Apply(ctx context.Context, customerID, kind string, amount decimal.Decimal, externalRef, description string) (m Movement, applied bool, err error) {
	if !ValidKind(kind) || !amount.IsPositive() || externalRef == "" {
		return Movement{}, false, ErrInvalidMovement
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Movement{}, false, err
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx, `SELECT balance FROM customers WHERE id=$1 FOR UPDATE`, customerID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return Movement{}, false, ErrNotFound
	} else if err != nil {
		return Movement{}, false, err
	}

	// Idempotência: a mesma referência já foi aplicada
	err = tx.QueryRowContext(ctx, `
		SELECT id, customer_id, kind, amount, balance_after, external_ref, description, created_at
		FROM customer_movements WHERE customer_id=$1 AND external_ref=$2`,
		customerID, externalRef,
	).Scan(&m.ID, &m.CustomerID, &m.Kind, &m.Amount, &m.BalanceAfter, &m.ExternalRef, &m.Description, &m.CreatedAt)
	if err == nil {
		if !SameMovement(m, kind, amount) {
			return Movement{}, false, fmt.Errorf("%w: ref %s already used by %s %s", ErrInvalidMovement, externalRef, m.Kind, m.Amount)
		}
		return m, false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Movement{}, false, err
	}

	newBalance := balance.Add(Signed(kind, amount))
	if _, err = tx.ExecContext(ctx,
		`UPDATE customers SET balance=$1, version=version+1 WHERE id=$2`, newBalance, customerID); err != nil {
		return Movement{}, false, fmt.Errorf("update balance: %w", err)
	}

	m = Movement{
		CustomerID:   customerID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: newBalance,
		ExternalRef:  externalRef,
		Description:  description,
	}
	if err = tx.QueryRowContext(ctx, `
		INSERT INTO customer_movements (customer_id, kind, amount, balance_after, external_ref, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		customerID, kind, amount, newBalance, externalRef, description,
	).Scan(&m.ID, &m.CreatedAt); err != nil {
		return Movement{}, false, fmt.Errorf("insert movement: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Movement{}, false, err
	}
	return m, true, nil
}

// Movements lista os movimentos do cliente, mais recentes primeiro
func (p *Postgres) Movements(ctx context.Context, customerID string, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, customer_id, kind, amount, balance_after, external_ref, description, created_at
		FROM customer_movements WHERE customer_id=$1
		ORDER BY id DESC LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Kind, &m.Amount, &m.BalanceAfter, &m.ExternalRef, &m.Description, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
