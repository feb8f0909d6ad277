package dto

import "github.com/shopspring/decimal"

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// MovementRequest serve para pagamentos (crédito) e cargas (débito).
type MovementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ExternalRef string          `json:"externalRef,omitempty"` // opcional p/ idempotência
	Description string          `json:"description,omitempty"`
}
