package repo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimento na conta corrente do cliente
const (
	KindPayment = "PAYMENT" // pagamento feito pelo cliente
	KindCharge  = "CHARGE"  // jogada debitada da conta
	KindPrize   = "PRIZE"   // prêmio creditado
	KindRefund  = "REFUND"  // estorno de jogada cancelada
)

// Signed devolve o valor com o sinal do movimento: só CHARGE reduz o saldo.
func Signed(kind string, amount decimal.Decimal) decimal.Decimal {
	if kind == KindCharge {
		return amount.Neg()
	}
	return amount
}

// Prefixos das referências gravadas pelo account-worker; movimentos manuais não podem usá-los
var reservedRefPrefixes = []string{"ticket:", "prize:", "refund:"}

// ReservedRef indica se a referência pertence ao namespace do account-worker.
func ReservedRef(ref string) bool {
	for _, p := range reservedRefPrefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return false
}

// SameMovement confere se uma repetição da referência descreve o mesmo movimento.
func SameMovement(m Movement, kind string, amount decimal.Decimal) bool {
	return m.Kind == kind && m.Amount.Equal(amount)
}

func ValidKind(kind string) bool {
	switch kind {
	case KindPayment, KindCharge, KindPrize, KindRefund:
		return true
	}
	return false
}

type Customer struct {
	ID        string
	AgencyID  string
	Name      string
	Phone     string
	Balance   decimal.Decimal // negativo = cliente devendo
	CreatedAt time.Time
}

type Movement struct {
	ID           int64
	CustomerID   string
	Kind         string
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	ExternalRef  string
	Description  string
	CreatedAt    time.Time
}
