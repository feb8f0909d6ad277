package producer

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	skafka "github.com/radieske/quiniela-platform/internal/shared/kafka"
	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de tickets e de mudança de status.
// A chave é o id do ticket para manter a ordem dos eventos de um mesmo ticket.
type KafkaPublisher struct {
	Tickets *kafka.Writer
	Status  *kafka.Writer
}

func NewKafkaPublisher(tickets, status *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Tickets: tickets, Status: status}
}

func (p *KafkaPublisher) PublishTicketPlaced(ctx context.Context, e events.TicketPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return skafka.WriteEvent(ctx, p.Tickets, e.TicketID, e)
}

func (p *KafkaPublisher) PublishBetStatusChanged(ctx context.Context, e events.BetStatusChanged) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return skafka.WriteEvent(ctx, p.Status, e.TicketID, e)
}
