package wager

import (
	"time"
	// o fuso padrão precisa existir mesmo em imagens sem zoneinfo
	_ "time/tzdata"
)

const (
	clockLayout = "15:04"
	// DateLayout é o formato das datas de sorteio trocadas com a API.
	DateLayout = "2006-01-02"
)

// ParseDrawDate interpreta "2006-01-02" no fuso da configuração.
func ParseDrawDate(s string, cfg Config) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, cfg.location())
}

// CloseAt devolve o instante em que o turno fecha na data do sorteio.
func CloseAt(drawDate time.Time, s Shift, cfg Config) (time.Time, error) {
	clock, err := time.Parse(clockLayout, s.CloseTime)
	if err != nil {
		return time.Time{}, err
	}
	loc := cfg.location()
	y, m, d := drawDate.In(loc).Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// CheckShiftOpen rejeita jogadas feitas a partir do horário de fechamento do
// turno. Só tem efeito com EnforceCloseTime ligado.
func CheckShiftOpen(now, drawDate time.Time, shiftID string, cfg Config) error {
	if !cfg.EnforceCloseTime {
		return nil
	}
	s, ok := cfg.ShiftByID(shiftID)
	if !ok {
		return invalid(CodeUnknownShift, "shift")
	}
	closeAt, err := CloseAt(drawDate, s, cfg)
	if err != nil {
		return invalid(CodeUnknownShift, "shift")
	}
	if !now.Before(closeAt) {
		return invalid(CodeShiftClosed, "shift")
	}
	return nil
}

// Today devolve a data corrente no fuso da configuração, no formato da API.
func Today(now time.Time, cfg Config) string {
	return now.In(cfg.location()).Format(DateLayout)
}
