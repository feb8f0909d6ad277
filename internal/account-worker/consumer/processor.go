package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/account-worker/dto"
	"github.com/radieske/quiniela-platform/internal/customer-service/repo"
	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

const paymentAccount = "account"

// MessageReader é o lado de leitura do consumer group
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Accounts aplica movimentos na conta corrente do cliente (idempotente por referência)
type Accounts interface {
	Apply(ctx context.Context, customerID, kind string, amount decimal.Decimal, externalRef, description string) (repo.Movement, bool, error)
}

// Processor consome ticket_placed e bet_status_changed e reflete as jogadas
// pagas "a cuenta" no saldo do cliente
type Processor struct {
	Log      *zap.Logger
	Reader   MessageReader
	Accounts Accounts
	DLQ      func(ctx context.Context, key string, payload []byte) error

	TopicTicketPlaced     string
	TopicBetStatusChanged string

	Retries int
	Backoff time.Duration

	OnEvent func(string) // métricas por tipo de evento
	OnError func(string) // métricas por fase

	sleep func(time.Duration)
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem com retry; esgotadas as tentativas, vai para a DLQ
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	attempts := p.Retries + 1
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			p.pause(time.Duration(i) * p.Backoff)
		}
		err = p.dispatch(ctx, m)
		if err == nil || errors.Is(err, errPermanent) {
			break
		}
		p.Log.Warn("account event failed", zap.String("topic", m.Topic), zap.Int("attempt", i+1), zap.Error(err))
	}
	if err == nil {
		return
	}

	p.fail("apply")
	p.Log.Error("account event dead-lettered", zap.String("topic", m.Topic), zap.String("key", string(m.Key)), zap.Error(err))
	if p.DLQ == nil {
		return
	}
	payload := m.Value
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(m.Value))
	}
	b, _ := json.Marshal(dto.DeadLetter{
		Topic:    m.Topic,
		Key:      string(m.Key),
		Payload:  payload,
		Error:    err.Error(),
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	})
	if derr := p.DLQ(ctx, string(m.Key), b); derr != nil {
		p.Log.Error("dlq write failed", zap.Error(derr))
		p.fail("dlq")
	}
}

// errPermanent marca falhas que não adianta repetir (payload inválido)
var errPermanent = errors.New("permanent")

func (p *Processor) dispatch(ctx context.Context, m kafka.Message) error {
	switch m.Topic {
	case p.TopicTicketPlaced:
		var e events.TicketPlaced
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return fmt.Errorf("%w: decode ticket_placed: %v", errPermanent, err)
		}
		return p.TicketPlaced(ctx, e)
	case p.TopicBetStatusChanged:
		var e events.BetStatusChanged
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return fmt.Errorf("%w: decode bet_status_changed: %v", errPermanent, err)
		}
		return p.BetStatusChanged(ctx, e)
	default:
		p.Log.Debug("ignoring topic", zap.String("topic", m.Topic))
		return nil
	}
}

// TicketPlaced debita da conta do cliente o total do ticket pago a cuenta
func (p *Processor) TicketPlaced(ctx context.Context, e events.TicketPlaced) error {
	if e.PaymentMethod != paymentAccount || e.CustomerID == "" {
		return nil
	}
	p.event("ticket_placed")
	_, applied, err := p.Accounts.Apply(ctx, e.CustomerID, repo.KindCharge, e.TotalStake,
		"ticket:"+e.TicketID, fmt.Sprintf("Ticket %s (%d jugadas)", short(e.TicketID), len(e.BetIDs)))
	if err != nil {
		return p.classify(err)
	}
	if applied {
		p.Log.Info("ticket charged", zap.String("ticket_id", e.TicketID), zap.String("customer_id", e.CustomerID), zap.String("amount", e.TotalStake.String()))
	}
	return nil
}

// BetStatusChanged credita o prêmio de uma jogada ganha ou estorna uma cancelada
func (p *Processor) BetStatusChanged(ctx context.Context, e events.BetStatusChanged) error {
	if e.PaymentMethod != paymentAccount || e.CustomerID == "" {
		return nil
	}
	var (
		kind   string
		amount decimal.Decimal
		ref    string
		desc   string
	)
	switch e.NewStatus {
	case "won":
		kind, amount, ref, desc = repo.KindPrize, e.PossiblePrize, "prize:"+e.BetID, "Premio jugada "+short(e.BetID)
	case "cancelled":
		kind, amount, ref, desc = repo.KindRefund, e.Amount, "refund:"+e.BetID, "Anulación jugada "+short(e.BetID)
	default:
		return nil
	}
	p.event("bet_" + e.NewStatus)
	_, applied, err := p.Accounts.Apply(ctx, e.CustomerID, kind, amount, ref, desc)
	if err != nil {
		return p.classify(err)
	}
	if applied {
		p.Log.Info("account movement", zap.String("bet_id", e.BetID), zap.String("kind", kind), zap.String("amount", amount.String()))
	}
	return nil
}

func (p *Processor) classify(err error) error {
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidMovement) {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	return err
}

func (p *Processor) pause(d time.Duration) {
	if p.sleep != nil {
		p.sleep(d)
		return
	}
	time.Sleep(d)
}

func (p *Processor) event(t string) {
	if p.OnEvent != nil {
		p.OnEvent(t)
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
