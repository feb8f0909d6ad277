package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Lines   []LineError `json:"lines,omitempty"`
}

// LineError descreve a falha de uma linha do ticket (índice a partir de 0).
type LineError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type AgencyResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type BetLine struct {
	BetID         string          `json:"betId"`
	Lottery       string          `json:"lottery"`
	Shift         string          `json:"shift"`
	Number        string          `json:"number"`
	Location      string          `json:"location"`
	Amount        decimal.Decimal `json:"amount"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	PossiblePrize decimal.Decimal `json:"possiblePrize"`
}

type PlaceTicketResponse struct {
	TicketID           string          `json:"ticketId"`
	Status             string          `json:"status"`
	DrawDate           string          `json:"drawDate"`
	PaymentMethod      string          `json:"paymentMethod"`
	Bets               []BetLine       `json:"bets"`
	TotalStake         decimal.Decimal `json:"totalStake"`
	TotalPossiblePrize decimal.Decimal `json:"totalPossiblePrize"`
	PaymentID          string          `json:"paymentId,omitempty"`
	PaymentURL         string          `json:"paymentUrl,omitempty"`
}

type BetResponse struct {
	ID            string          `json:"id"`
	TicketID      string          `json:"ticketId"`
	CustomerID    string          `json:"customerId,omitempty"`
	Lottery       string          `json:"lottery"`
	Shift         string          `json:"shift"`
	DrawDate      string          `json:"drawDate"`
	Number        string          `json:"number"`
	Location      string          `json:"location"`
	Amount        decimal.Decimal `json:"amount"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	PossiblePrize decimal.Decimal `json:"possiblePrize"`
	Origin        string          `json:"origin"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type SummaryResponse struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Sales     decimal.Decimal `json:"sales"`
	Prizes    decimal.Decimal `json:"prizes"`
	Profit    decimal.Decimal `json:"profit"`
	Bets      int             `json:"bets"`
	Pending   int             `json:"pending"`
	Won       int             `json:"won"`
	Lost      int             `json:"lost"`
	Cancelled int             `json:"cancelled"`
}

type DailyResponse struct {
	DrawDate string          `json:"drawDate"`
	Sales    decimal.Decimal `json:"sales"`
	Prizes   decimal.Decimal `json:"prizes"`
	Profit   decimal.Decimal `json:"profit"`
	Bets     int             `json:"bets"`
}
