package dto

import "github.com/shopspring/decimal"

// TicketLine é uma jogada como o formulário envia.
type TicketLine struct {
	Lottery  string          `json:"lottery"`
	Shift    string          `json:"shift"`
	Number   string          `json:"number"`   // texto: "05" e "5" são jogadas diferentes
	Location string          `json:"location"` // "head" | "top5" | "top10" | "top20"
	Amount   decimal.Decimal `json:"amount"`
}

type PlaceTicketRequest struct {
	CustomerID    string       `json:"customerId,omitempty"`
	Origin        string       `json:"origin"`        // "local" | "whatsapp"
	PaymentMethod string       `json:"paymentMethod"` // "cash" | "account" | "electronic"
	DrawDate      string       `json:"drawDate"`      // YYYY-MM-DD; vazio = hoje
	Lines         []TicketLine `json:"lines"`
}

// PlaceBetRequest é o atalho de uma jogada só.
type PlaceBetRequest struct {
	TicketLine
	CustomerID    string `json:"customerId,omitempty"`
	Origin        string `json:"origin"`
	PaymentMethod string `json:"paymentMethod"`
	DrawDate      string `json:"drawDate"`
}

type CreateAgencyRequest struct {
	Name string `json:"name"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"` // "won" | "lost" | "cancelled"
}
