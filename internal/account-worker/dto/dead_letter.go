package dto

import (
	"encoding/json"
	"time"
)

// DeadLetter é o envelope gravado na DLQ quando um evento esgota as tentativas
type DeadLetter struct {
	Topic    string          `json:"topic"`
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}
