package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/radieske/quiniela-platform/internal/bet-service/dto"
	"github.com/radieske/quiniela-platform/internal/wager"
)

var wagerMessages = map[wager.Code]string{
	wager.CodeInvalidNumberFormat:     "El número debe tener entre 1 y 4 dígitos",
	wager.CodeInvalidAmount:           "El importe debe ser positivo y tener como máximo 2 decimales",
	wager.CodeAmountBelowMinimum:      "La apuesta mínima es de $%s",
	wager.CodeUnknownPosition:         "Ubicación inválida",
	wager.CodeUnknownLottery:          "Lotería inválida",
	wager.CodeUnknownShift:            "Turno inválido",
	wager.CodeUnknownDigitCount:       "Cantidad de cifras no habilitada",
	wager.CodePerNumberLimitExceeded:  "Se supera el máximo de $%s por número",
	wager.CodeGlobalRiskLimitExceeded: "Se supera el riesgo máximo de $%s del sorteo",
	wager.CodeShiftClosed:             "El turno ya cerró",
}

// wagerStatus separa erros de formulário (422) de limites e horário, que
// dependem do estado do sorteio (409).
func wagerStatus(code wager.Code) int {
	switch code {
	case wager.CodePerNumberLimitExceeded, wager.CodeGlobalRiskLimitExceeded, wager.CodeShiftClosed:
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}

func lineError(line int, err error) dto.LineError {
	var ve *wager.ValidationError
	if !errors.As(err, &ve) {
		return dto.LineError{Line: line, Code: "invalid", Message: err.Error()}
	}
	msg, ok := wagerMessages[ve.Code]
	if !ok {
		msg = string(ve.Code)
	}
	if strings.Contains(msg, "%s") {
		msg = fmt.Sprintf(msg, ve.Limit.String())
	}
	return dto.LineError{Line: line, Code: string(ve.Code), Field: ve.Field, Message: msg}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: code, Message: msg})
}

func writeLineErrors(w http.ResponseWriter, lines []dto.LineError) {
	status := http.StatusUnprocessableEntity
	for _, l := range lines {
		if wagerStatus(wager.Code(l.Code)) == http.StatusConflict {
			status = http.StatusConflict
		}
	}
	msg := lines[0].Message
	if len(lines) > 1 {
		msg = fmt.Sprintf("%d jugadas con errores", len(lines))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: lines[0].Code, Message: msg, Lines: lines})
}
