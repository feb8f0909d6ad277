package dto

import (
	"time"

	"github.com/radieske/quiniela-platform/internal/wager"
)

// Result é o extracto de um sorteio como a agência consulta
type Result struct {
	LotteryName string    `json:"lotteryName"`
	LotteryType string    `json:"lotteryType"`
	DrawDate    string    `json:"drawDate"`
	Numbers     []int     `json:"numbers"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Draws lista loterias e turnos vigentes para montar a grade de sorteios
type Draws struct {
	Lotteries []wager.Lottery `json:"lotteries"`
	Shifts    []wager.Shift   `json:"shifts"`
	Timezone  string          `json:"timezone"`
}
