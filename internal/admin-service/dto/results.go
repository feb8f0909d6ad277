package dto

import "time"

const ResultSize = 20

type PublishResultRequest struct {
	LotteryName string `json:"lotteryName"`
	LotteryType string `json:"lotteryType"` // turno
	DrawDate    string `json:"drawDate"`
	Numbers     []int  `json:"numbers"`
}

type ResultResponse struct {
	LotteryName string    `json:"lotteryName"`
	LotteryType string    `json:"lotteryType"`
	DrawDate    string    `json:"drawDate"`
	Numbers     []int     `json:"numbers"`
	PublishedBy string    `json:"publishedBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
