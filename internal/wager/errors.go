package wager

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code identifica qual regra de validação falhou.
type Code string

const (
	CodeInvalidNumberFormat     Code = "INVALID_NUMBER_FORMAT"
	CodeInvalidAmount           Code = "INVALID_AMOUNT"
	CodeAmountBelowMinimum      Code = "AMOUNT_BELOW_MINIMUM"
	CodeUnknownPosition         Code = "UNKNOWN_POSITION"
	CodeUnknownLottery          Code = "UNKNOWN_LOTTERY"
	CodeUnknownShift            Code = "UNKNOWN_SHIFT"
	CodeUnknownDigitCount       Code = "UNKNOWN_DIGIT_COUNT"
	CodePerNumberLimitExceeded  Code = "PER_NUMBER_LIMIT_EXCEEDED"
	CodeGlobalRiskLimitExceeded Code = "GLOBAL_RISK_LIMIT_EXCEEDED"
	CodeShiftClosed             Code = "SHIFT_CLOSED"
)

// ValidationError é o valor devolvido quando uma jogada não passa nas regras.
// Limit é preenchido nas regras que comparam contra um teto ou piso configurado.
type ValidationError struct {
	Code  Code
	Field string
	Limit decimal.Decimal
}

func (e *ValidationError) Error() string {
	if e.Limit.IsZero() {
		return fmt.Sprintf("wager: %s (%s)", e.Code, e.Field)
	}
	return fmt.Sprintf("wager: %s (%s, limit %s)", e.Code, e.Field, e.Limit.String())
}

func invalid(code Code, field string) *ValidationError {
	return &ValidationError{Code: code, Field: field}
}

func overLimit(code Code, field string, limit decimal.Decimal) *ValidationError {
	return &ValidationError{Code: code, Field: field, Limit: limit}
}

// CodeOf devolve o código da regra violada, ou "" se err não for de validação.
func CodeOf(err error) Code {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
