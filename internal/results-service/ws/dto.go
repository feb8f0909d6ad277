package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// DrawDate: obrigatório para subscribe/unsubscribe ("2006-01-02")
type ClientMsg struct {
	Type     string `json:"type"` // subscribe | unsubscribe | ping
	DrawDate string `json:"drawDate"`
}

// ResultUpdate é enviado aos clientes inscritos na data do sorteio
type ResultUpdate struct {
	Type     string `json:"type"` // "result" | "retracted"
	DrawDate string `json:"drawDate"`
	Payload  any    `json:"payload"`
}
