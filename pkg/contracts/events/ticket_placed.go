package events

import "github.com/shopspring/decimal"

// Evento publicado pelo bet-service quando um ticket é gravado.
type TicketPlaced struct {
	TicketID           string          `json:"ticket_id"`
	AgencyID           string          `json:"agency_id"`
	CustomerID         string          `json:"customer_id,omitempty"`
	PaymentMethod      string          `json:"payment_method"` // "cash" | "account" | "electronic"
	Origin             string          `json:"origin"`         // "local" | "whatsapp"
	DrawDate           string          `json:"draw_date"`
	BetIDs             []string        `json:"bet_ids"`
	TotalStake         decimal.Decimal `json:"total_stake"`
	TotalPossiblePrize decimal.Decimal `json:"total_possible_prize"`
	TsUnixMs           int64           `json:"ts_unix_ms"`
}
