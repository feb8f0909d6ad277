package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/bet-service/dto"
	"github.com/radieske/quiniela-platform/internal/bet-service/payment"
	"github.com/radieske/quiniela-platform/internal/bet-service/repo"
	"github.com/radieske/quiniela-platform/internal/shared/auth"
	"github.com/radieske/quiniela-platform/internal/wager"
	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

const (
	OriginLocal    = "local"
	OriginWhatsApp = "whatsapp"

	PaymentCash       = "cash"
	PaymentAccount    = "account"
	PaymentElectronic = "electronic"

	maxTicketLines = 50
)

// Repo define as operações de persistência usadas pelos handlers
type Repo interface {
	EnsureAgency(ctx context.Context, ownerUID, email, name string) (repo.Agency, bool, error)
	AgencyByOwner(ctx context.Context, ownerUID string) (repo.Agency, error)
	CustomerBelongsTo(ctx context.Context, agencyID, customerID string) (bool, error)
	CreateTicket(ctx context.Context, t *repo.Ticket, cfg wager.Config) error
	SetPaymentRef(ctx context.Context, ticketID, ref string) error
	CancelTicket(ctx context.Context, ticketID, changedBy string) error
	GetBet(ctx context.Context, agencyID, betID string) (repo.Bet, error)
	ListBets(ctx context.Context, agencyID string, f repo.BetFilter) ([]repo.Bet, error)
	UpdateStatus(ctx context.Context, betID, newStatus, changedBy string) (repo.Bet, string, error)
	RevertStatus(ctx context.Context, betID, from, to, changedBy string) error
	Summary(ctx context.Context, agencyID, from, to string) (repo.Summary, error)
	Daily(ctx context.Context, agencyID, from, to string) ([]repo.DailySales, error)
}

// RulesSource entrega a configuração de regras vigente
type RulesSource interface {
	Rules(ctx context.Context) (wager.Config, error)
}

type Payments interface {
	CreatePreference(ctx context.Context, title string, quantity int, unitPrice decimal.Decimal, externalRef string) (payment.Preference, error)
}

type Publisher interface {
	PublishTicketPlaced(ctx context.Context, e events.TicketPlaced) error
	PublishBetStatusChanged(ctx context.Context, e events.BetStatusChanged) error
}

// Server expõe a API de agências, tickets e relatórios
type Server struct {
	log   *zap.Logger
	repo  Repo
	rules RulesSource
	pay   Payments
	publ  Publisher
	authn func(http.Handler) http.Handler

	// ganchos de métricas; nil = ignorado
	OnTicketPlaced func(lines int)
	OnRejected     func(code string)

	now func() time.Time
}

func NewServer(log *zap.Logger, r Repo, rules RulesSource, pay Payments, publ Publisher, authn func(http.Handler) http.Handler) *Server {
	return &Server{log: log, repo: r, rules: rules, pay: pay, publ: publ, authn: authn, now: time.Now}
}

// Router retorna o roteador HTTP; todas as rotas exigem autenticação
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authn)

	r.Post("/agencies", s.createAgency)
	r.Get("/agencies/me", s.getAgency)
	r.Get("/rules", s.getRules)

	r.Post("/tickets", s.placeTicket)
	r.Post("/bets", s.placeBet)
	r.Get("/bets", s.listBets)
	r.Get("/bets/{id}", s.getBet)
	r.With(auth.RequireRole(auth.RoleAdmin)).Patch("/bets/{id}/status", s.updateStatus)

	r.Get("/reports/summary", s.summary)
	r.Get("/reports/daily", s.daily)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// agencyFor resolve a agência do usuário autenticado; escreve a resposta de erro quando falha
func (s *Server) agencyFor(w http.ResponseWriter, r *http.Request) (auth.Principal, repo.Agency, bool) {
	p, _ := auth.FromContext(r.Context())
	a, err := s.repo.AgencyByOwner(r.Context(), p.UID)
	if errors.Is(err, repo.ErrAgencyNotProvisioned) {
		writeError(w, http.StatusForbidden, "agency_not_provisioned", "La agencia no está dada de alta")
		return p, repo.Agency{}, false
	}
	if err != nil {
		s.log.Error("agency lookup", zap.String("uid", p.UID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return p, repo.Agency{}, false
	}
	return p, a, true
}

func (s *Server) createAgency(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var req dto.CreateAgencyRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
			return
		}
	}
	a, created, err := s.repo.EnsureAgency(r.Context(), p.UID, p.Email, req.Name)
	if err != nil {
		s.log.Error("ensure agency", zap.String("uid", p.UID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		s.log.Info("agency provisioned", zap.String("agency_id", a.ID), zap.String("uid", p.UID))
	}
	writeJSON(w, status, agencyResponse(a))
}

func (s *Server) getAgency(w http.ResponseWriter, r *http.Request) {
	_, a, ok := s.agencyFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, agencyResponse(a))
}

func (s *Server) getRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.rules.Rules(r.Context())
	if err != nil {
		s.log.Error("load rules", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "rules_unavailable", "No se pudieron cargar las reglas")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
		return
	}
	s.place(w, r, dto.PlaceTicketRequest{
		CustomerID:    req.CustomerID,
		Origin:        req.Origin,
		PaymentMethod: req.PaymentMethod,
		DrawDate:      req.DrawDate,
		Lines:         []dto.TicketLine{req.TicketLine},
	})
}

func (s *Server) placeTicket(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
		return
	}
	s.place(w, r, req)
}

// place valida todas as linhas, grava o ticket sob os limites e, se for o
// caso, cria a preferência de pagamento eletrônico
func (s *Server) place(w http.ResponseWriter, r *http.Request, req dto.PlaceTicketRequest) {
	ctx := r.Context()
	p, agency, ok := s.agencyFor(w, r)
	if !ok {
		return
	}

	if req.Origin == "" {
		req.Origin = OriginLocal
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentCash
	}
	switch {
	case req.Origin != OriginLocal && req.Origin != OriginWhatsApp:
		writeError(w, http.StatusBadRequest, "invalid_payload", "Origen inválido")
		return
	case req.PaymentMethod != PaymentCash && req.PaymentMethod != PaymentAccount && req.PaymentMethod != PaymentElectronic:
		writeError(w, http.StatusBadRequest, "invalid_payload", "Medio de pago inválido")
		return
	case len(req.Lines) == 0 || len(req.Lines) > maxTicketLines:
		writeError(w, http.StatusBadRequest, "invalid_payload", "El ticket debe tener entre 1 y 50 jugadas")
		return
	case req.PaymentMethod == PaymentAccount && req.CustomerID == "":
		writeError(w, http.StatusBadRequest, "customer_required", "El pago a cuenta requiere un cliente")
		return
	}

	if req.CustomerID != "" {
		if _, err := uuid.Parse(req.CustomerID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "Cliente inválido")
			return
		}
		belongs, err := s.repo.CustomerBelongsTo(ctx, agency.ID, req.CustomerID)
		if err != nil {
			s.log.Error("customer lookup", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal", "Error interno")
			return
		}
		if !belongs {
			writeError(w, http.StatusNotFound, "customer_not_found", "Cliente no encontrado")
			return
		}
	}

	cfg, err := s.rules.Rules(ctx)
	if err != nil {
		s.log.Error("load rules", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "rules_unavailable", "No se pudieron cargar las reglas")
		return
	}

	now := s.now()
	if req.DrawDate == "" {
		req.DrawDate = wager.Today(now, cfg)
	}
	drawDate, err := wager.ParseDrawDate(req.DrawDate, cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Fecha de sorteo inválida")
		return
	}

	t := &repo.Ticket{
		ID:            uuid.NewString(),
		AgencyID:      agency.ID,
		ProfileID:     p.UID,
		CustomerID:    req.CustomerID,
		Origin:        req.Origin,
		PaymentMethod: req.PaymentMethod,
		DrawDate:      req.DrawDate,
	}
	var lineErrs []dto.LineError
	for i, l := range req.Lines {
		vw, err := wager.ValidateWager(wager.Input{
			LotteryID: l.Lottery,
			ShiftID:   l.Shift,
			Position:  wager.Position(l.Location),
			Number:    l.Number,
			Amount:    l.Amount,
		}, cfg)
		if err == nil {
			err = wager.CheckShiftOpen(now, drawDate, l.Shift, cfg)
		}
		if err != nil {
			lineErrs = append(lineErrs, lineError(i, err))
			continue
		}
		t.Lines = append(t.Lines, repo.Line{Wager: vw})
	}
	if len(lineErrs) > 0 {
		s.rejected(lineErrs)
		writeLineErrors(w, lineErrs)
		return
	}

	if err := s.repo.CreateTicket(ctx, t, cfg); err != nil {
		var le *repo.LineError
		if errors.As(err, &le) {
			errs := []dto.LineError{lineError(le.Line, le.Err)}
			s.rejected(errs)
			writeLineErrors(w, errs)
			return
		}
		s.log.Error("create ticket", zap.String("agency_id", agency.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}

	lines := make([]wager.ValidatedWager, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = l.Wager
	}
	totals := wager.ComputeTicketTotal(lines)

	resp := dto.PlaceTicketResponse{
		TicketID:           t.ID,
		Status:             repo.StatusPending,
		DrawDate:           t.DrawDate,
		PaymentMethod:      t.PaymentMethod,
		TotalStake:         totals.TotalStake,
		TotalPossiblePrize: totals.TotalPossiblePrize,
	}
	for _, l := range t.Lines {
		resp.Bets = append(resp.Bets, dto.BetLine{
			BetID:         l.BetID,
			Lottery:       l.Wager.LotteryID,
			Shift:         l.Wager.ShiftID,
			Number:        l.Wager.Number,
			Location:      string(l.Wager.Position),
			Amount:        l.Wager.Amount,
			Multiplier:    l.Wager.Multiplier,
			PossiblePrize: l.Wager.PossiblePrize,
		})
	}

	if t.PaymentMethod == PaymentElectronic {
		pref, err := s.pay.CreatePreference(ctx, "Ticket de quiniela "+t.ID[:8], 1, totals.TotalStake, t.ID)
		if err != nil {
			s.log.Warn("payment preference failed", zap.String("ticket_id", t.ID), zap.Error(err))
			if cerr := s.repo.CancelTicket(ctx, t.ID, "system"); cerr != nil {
				s.log.Error("cancel unpaid ticket", zap.String("ticket_id", t.ID), zap.Error(cerr))
			}
			writeError(w, http.StatusBadGateway, "payment_unavailable", "No se pudo iniciar el pago electrónico")
			return
		}
		if err := s.repo.SetPaymentRef(ctx, t.ID, pref.ID); err != nil {
			s.log.Warn("set payment ref", zap.String("ticket_id", t.ID), zap.Error(err))
		}
		resp.PaymentID = pref.ID
		resp.PaymentURL = pref.InitPoint
	}

	betIDs := make([]string, len(t.Lines))
	for i, l := range t.Lines {
		betIDs[i] = l.BetID
	}
	if err := s.publ.PublishTicketPlaced(ctx, events.TicketPlaced{
		TicketID:           t.ID,
		AgencyID:           t.AgencyID,
		CustomerID:         t.CustomerID,
		PaymentMethod:      t.PaymentMethod,
		Origin:             t.Origin,
		DrawDate:           t.DrawDate,
		BetIDs:             betIDs,
		TotalStake:         totals.TotalStake,
		TotalPossiblePrize: totals.TotalPossiblePrize,
	}); err != nil {
		// ticket sem evento publicado não vale
		s.log.Error("publish ticket_placed", zap.String("ticket_id", t.ID), zap.Error(err))
		if cerr := s.repo.CancelTicket(ctx, t.ID, "system"); cerr != nil {
			s.log.Error("cancel unpublished ticket", zap.String("ticket_id", t.ID), zap.Error(cerr))
		}
		writeError(w, http.StatusBadGateway, "event_unavailable", "No se pudo registrar el ticket, intente nuevamente")
		return
	}

	if s.OnTicketPlaced != nil {
		s.OnTicketPlaced(len(t.Lines))
	}
	s.log.Info("ticket placed",
		zap.String("ticket_id", t.ID),
		zap.String("agency_id", t.AgencyID),
		zap.Int("lines", len(t.Lines)),
		zap.String("total_stake", totals.TotalStake.String()))
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) rejected(errs []dto.LineError) {
	if s.OnRejected == nil {
		return
	}
	for _, e := range errs {
		s.OnRejected(e.Code)
	}
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	_, a, ok := s.agencyFor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := repo.BetFilter{DrawDate: q.Get("date"), Status: q.Get("status"), TicketID: q.Get("ticketId")}
	if f.DrawDate != "" {
		if _, err := time.Parse(wager.DateLayout, f.DrawDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "Fecha inválida")
			return
		}
	}
	if f.TicketID != "" {
		if _, err := uuid.Parse(f.TicketID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "Ticket inválido")
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}

	bets, err := s.repo.ListBets(r.Context(), a.ID, f)
	if err != nil {
		s.log.Error("list bets", zap.String("agency_id", a.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	out := make([]dto.BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, betResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "Apuesta no encontrada")
		return
	}

	scope := ""
	if p, _ := auth.FromContext(r.Context()); p.Role != auth.RoleAdmin {
		_, a, ok := s.agencyFor(w, r)
		if !ok {
			return
		}
		scope = a.ID
	}

	b, err := s.repo.GetBet(r.Context(), scope, id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Apuesta no encontrada")
		return
	}
	if err != nil {
		s.log.Error("get bet", zap.String("bet_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	writeJSON(w, http.StatusOK, betResponse(b))
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "Apuesta no encontrada")
		return
	}
	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
		return
	}
	switch req.Status {
	case repo.StatusWon, repo.StatusLost, repo.StatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, "invalid_status", "Estado inválido")
		return
	}

	p, _ := auth.FromContext(r.Context())
	b, old, err := s.repo.UpdateStatus(r.Context(), id, req.Status, p.UID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Apuesta no encontrada")
		return
	case errors.Is(err, repo.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", "Solo se pueden modificar apuestas pendientes")
		return
	case err != nil:
		s.log.Error("update status", zap.String("bet_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}

	if err := s.publ.PublishBetStatusChanged(r.Context(), events.BetStatusChanged{
		BetID:         b.ID,
		TicketID:      b.TicketID,
		AgencyID:      b.AgencyID,
		CustomerID:    b.CustomerID,
		PaymentMethod: b.PaymentMethod,
		OldStatus:     old,
		NewStatus:     b.Status,
		Amount:        b.Amount,
		PossiblePrize: b.PossiblePrize,
		ChangedBy:     p.UID,
		Ts:            s.now().UTC(),
	}); err != nil {
		s.log.Error("publish bet_status_changed", zap.String("bet_id", b.ID), zap.Error(err))
		if rerr := s.repo.RevertStatus(r.Context(), b.ID, b.Status, old, "system"); rerr != nil {
			s.log.Error("revert bet status", zap.String("bet_id", b.ID), zap.Error(rerr))
		}
		writeError(w, http.StatusBadGateway, "event_unavailable", "No se pudo registrar el cambio de estado, intente nuevamente")
		return
	}
	s.log.Info("bet status changed", zap.String("bet_id", b.ID), zap.String("from", old), zap.String("to", b.Status))
	writeJSON(w, http.StatusOK, betResponse(b))
}

// period lê from/to; sem parâmetros vale o dia corrente
func (s *Server) period(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		cfg, err := s.rules.Rules(r.Context())
		if err != nil {
			cfg = wager.DefaultConfig()
		}
		today := wager.Today(s.now(), cfg)
		return today, today, true
	}
	if to == "" {
		to = from
	}
	if from == "" {
		from = to
	}
	f, err1 := time.Parse(wager.DateLayout, from)
	t, err2 := time.Parse(wager.DateLayout, to)
	if err1 != nil || err2 != nil || t.Before(f) {
		writeError(w, http.StatusBadRequest, "invalid_period", "Período inválido")
		return "", "", false
	}
	return from, to, true
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	_, a, ok := s.agencyFor(w, r)
	if !ok {
		return
	}
	from, to, ok := s.period(w, r)
	if !ok {
		return
	}
	sum, err := s.repo.Summary(r.Context(), a.ID, from, to)
	if err != nil {
		s.log.Error("summary", zap.String("agency_id", a.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	writeJSON(w, http.StatusOK, dto.SummaryResponse{
		From:      sum.From,
		To:        sum.To,
		Sales:     sum.Sales,
		Prizes:    sum.Prizes,
		Profit:    sum.Profit(),
		Bets:      sum.Bets,
		Pending:   sum.Pending,
		Won:       sum.Won,
		Lost:      sum.Lost,
		Cancelled: sum.Cancelled,
	})
}

func (s *Server) daily(w http.ResponseWriter, r *http.Request) {
	_, a, ok := s.agencyFor(w, r)
	if !ok {
		return
	}
	from, to, ok := s.period(w, r)
	if !ok {
		return
	}
	rows, err := s.repo.Daily(r.Context(), a.ID, from, to)
	if err != nil {
		s.log.Error("daily report", zap.String("agency_id", a.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	out := make([]dto.DailyResponse, 0, len(rows))
	for _, d := range rows {
		out = append(out, dto.DailyResponse{
			DrawDate: d.DrawDate,
			Sales:    d.Sales,
			Prizes:   d.Prizes,
			Profit:   d.Sales.Sub(d.Prizes),
			Bets:     d.Bets,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func agencyResponse(a repo.Agency) dto.AgencyResponse {
	return dto.AgencyResponse{ID: a.ID, Email: a.Email, Name: a.Name, CreatedAt: a.CreatedAt}
}

func betResponse(b repo.Bet) dto.BetResponse {
	return dto.BetResponse{
		ID:            b.ID,
		TicketID:      b.TicketID,
		CustomerID:    b.CustomerID,
		Lottery:       b.Lottery,
		Shift:         b.Shift,
		DrawDate:      b.DrawDate,
		Number:        b.Number,
		Location:      b.Location,
		Amount:        b.Amount,
		Multiplier:    b.Multiplier,
		PossiblePrize: b.PossiblePrize,
		Origin:        b.Origin,
		PaymentMethod: b.PaymentMethod,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
	}
}
