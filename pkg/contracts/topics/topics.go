package topics

const (
	// Tickets e apostas
	TicketPlaced     = "ticket_placed"
	BetStatusChanged = "bet_status_changed"

	// DLQs
	AccountDLQ = "account_events_dlq"

	// Canal Redis Pub/Sub de resultados publicados
	ResultsBroadcast = "results_broadcast"
)
