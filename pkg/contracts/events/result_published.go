package events

import "time"

// Evento publicado no canal Redis "results_broadcast" quando um resultado é publicado ou retirado
type ResultPublished struct {
	LotteryName string    `json:"lottery_name"`
	LotteryType string    `json:"lottery_type"` // turno, ex: "matutina"
	DrawDate    string    `json:"draw_date"`    // "2006-01-02"
	Numbers     []int     `json:"numbers"`      // 20 posições; vazio quando retirado
	Retracted   bool      `json:"retracted,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
