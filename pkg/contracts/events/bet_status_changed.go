package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido quando um administrador muda o status de uma aposta.
type BetStatusChanged struct {
	BetID         string          `json:"bet_id"`
	TicketID      string          `json:"ticket_id"`
	AgencyID      string          `json:"agency_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	OldStatus     string          `json:"old_status"`
	NewStatus     string          `json:"new_status"` // "won" | "lost" | "cancelled"
	Amount        decimal.Decimal `json:"amount"`
	PossiblePrize decimal.Decimal `json:"possible_prize"`
	ChangedBy     string          `json:"changed_by"`
	Ts            time.Time       `json:"ts"`
}
