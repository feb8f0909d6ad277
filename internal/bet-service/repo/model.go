package repo

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/quiniela-platform/internal/wager"
)

const (
	StatusPending   = "pending"
	StatusWon       = "won"
	StatusLost      = "lost"
	StatusCancelled = "cancelled"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrAgencyNotProvisioned = errors.New("agency not provisioned")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// Agency é a agência de quiniela de um usuário autenticado.
type Agency struct {
	ID        string
	OwnerUID  string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Bet é o modelo persistido no Postgres: uma linha de ticket.
type Bet struct {
	ID            string
	TicketID      string
	AgencyID      string
	ProfileID     string
	CustomerID    string
	Lottery       string
	Shift         string
	DrawDate      string
	Number        string
	Location      string
	Amount        decimal.Decimal
	Multiplier    decimal.Decimal
	PossiblePrize decimal.Decimal
	Origin        string
	PaymentMethod string
	PaymentRef    string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Line é uma jogada validada dentro de um ticket; BetID é preenchido ao gravar.
type Line struct {
	BetID string
	Wager wager.ValidatedWager
}

// Ticket agrupa as jogadas registradas juntas para o mesmo sorteio.
type Ticket struct {
	ID            string
	AgencyID      string
	ProfileID     string
	CustomerID    string
	Origin        string
	PaymentMethod string
	DrawDate      string
	Lines         []Line
}

// LineError aponta qual linha do ticket estourou um limite.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// BetFilter restringe a listagem de apostas de uma agência.
type BetFilter struct {
	DrawDate string
	Status   string
	TicketID string
	Limit    int
}

// Summary consolida vendas e prêmios de um período.
type Summary struct {
	From      string
	To        string
	Sales     decimal.Decimal
	Prizes    decimal.Decimal
	Bets      int
	Pending   int
	Won       int
	Lost      int
	Cancelled int
}

func (s Summary) Profit() decimal.Decimal { return s.Sales.Sub(s.Prizes) }

// DailySales é uma linha do relatório diário.
type DailySales struct {
	DrawDate string
	Sales    decimal.Decimal
	Prizes   decimal.Decimal
	Bets     int
}
