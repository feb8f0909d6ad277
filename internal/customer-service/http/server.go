package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/customer-service/dto"
	"github.com/radieske/quiniela-platform/internal/customer-service/repo"
	"github.com/radieske/quiniela-platform/internal/shared/auth"
)

// Repo define as operações de clientes usadas pelo handler HTTP
type Repo interface {
	AgencyIDByOwner(ctx context.Context, ownerUID string) (string, error)
	Create(ctx context.Context, agencyID, name, phone string) (repo.Customer, error)
	List(ctx context.Context, agencyID string) ([]repo.Customer, error)
	Get(ctx context.Context, agencyID, id string) (repo.Customer, error)
	Apply(ctx context.Context, customerID, kind string, amount decimal.Decimal, externalRef, description string) (repo.Movement, bool, error)
	Movements(ctx context.Context, customerID string, limit int) ([]repo.Movement, error)
}

// Server expõe o cadastro de clientes e a conta corrente de cada um
type Server struct {
	log   *zap.Logger
	repo  Repo
	authn func(http.Handler) http.Handler
}

func NewServer(log *zap.Logger, r Repo, authn func(http.Handler) http.Handler) *Server {
	return &Server{log: log, repo: r, authn: authn}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authn)
	r.Get("/customers", s.list)
	r.Post("/customers", s.create)
	r.Get("/customers/{id}", s.get)
	r.Post("/customers/{id}/payments", s.movement(repo.KindPayment))
	r.Post("/customers/{id}/charges", s.movement(repo.KindCharge))
	r.Get("/customers/{id}/movements", s.movements)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: code, Message: msg})
}

func (s *Server) agencyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, _ := auth.FromContext(r.Context())
	id, err := s.repo.AgencyIDByOwner(r.Context(), p.UID)
	if errors.Is(err, repo.ErrAgencyNotProvisioned) {
		writeError(w, http.StatusForbidden, "agency_not_provisioned", "La agencia no está dada de alta")
		return "", false
	}
	if err != nil {
		s.log.Error("agency lookup", zap.String("uid", p.UID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return "", false
	}
	return id, true
}

// customer resolve o {id} da rota dentro da agência do usuário
func (s *Server) customer(w http.ResponseWriter, r *http.Request) (repo.Customer, bool) {
	agencyID, ok := s.agencyID(w, r)
	if !ok {
		return repo.Customer{}, false
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "Cliente no encontrado")
		return repo.Customer{}, false
	}
	c, err := s.repo.Get(r.Context(), agencyID, id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Cliente no encontrado")
		return repo.Customer{}, false
	}
	if err != nil {
		s.log.Error("get customer", zap.String("customer_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return repo.Customer{}, false
	}
	return c, true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := s.agencyID(w, r)
	if !ok {
		return
	}
	cs, err := s.repo.List(r.Context(), agencyID)
	if err != nil {
		s.log.Error("list customers", zap.String("agency_id", agencyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	out := make([]dto.CustomerResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, customerResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := s.agencyID(w, r)
	if !ok {
		return
	}
	var req dto.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_payload", "El nombre es obligatorio")
		return
	}
	c, err := s.repo.Create(r.Context(), agencyID, req.Name, strings.TrimSpace(req.Phone))
	if err != nil {
		s.log.Error("create customer", zap.String("agency_id", agencyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	s.log.Info("customer created", zap.String("customer_id", c.ID), zap.String("agency_id", agencyID))
	writeJSON(w, http.StatusCreated, customerResponse(c))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	c, ok := s.customer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, customerResponse(c))
}

// movement registra pagamento (crédito) ou carga (débito); a carga pode deixar o saldo negativo
func (s *Server) movement(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.customer(w, r)
		if !ok {
			return
		}
		var req dto.MovementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
			return
		}
		if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_AMOUNT", "El importe debe ser positivo y tener como máximo 2 decimales")
			return
		}
		if repo.ReservedRef(req.ExternalRef) {
			writeError(w, http.StatusUnprocessableEntity, "reserved_ref", "La referencia está reservada para movimientos automáticos")
			return
		}
		if req.ExternalRef == "" {
			req.ExternalRef = "manual:" + uuid.NewString()
		}

		m, applied, err := s.repo.Apply(r.Context(), c.ID, kind, req.Amount, req.ExternalRef, req.Description)
		if errors.Is(err, repo.ErrInvalidMovement) {
			writeError(w, http.StatusConflict, "ref_conflict", "La referencia ya fue usada en otro movimiento")
			return
		}
		if err != nil {
			s.log.Error("apply movement", zap.String("customer_id", c.ID), zap.String("kind", kind), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal", "Error interno")
			return
		}
		status := http.StatusOK
		if applied {
			status = http.StatusCreated
			s.log.Info("movement applied",
				zap.String("customer_id", c.ID),
				zap.String("kind", kind),
				zap.String("amount", m.Amount.String()),
				zap.String("balance", m.BalanceAfter.String()))
		}
		writeJSON(w, status, movementResponse(m))
	}
}

func (s *Server) movements(w http.ResponseWriter, r *http.Request) {
	c, ok := s.customer(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ms, err := s.repo.Movements(r.Context(), c.ID, limit)
	if err != nil {
		s.log.Error("list movements", zap.String("customer_id", c.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	out := make([]dto.MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, movementResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func customerResponse(c repo.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{ID: c.ID, Name: c.Name, Phone: c.Phone, Balance: c.Balance, CreatedAt: c.CreatedAt}
}

func movementResponse(m repo.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:           m.ID,
		Kind:         m.Kind,
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		ExternalRef:  m.ExternalRef,
		Description:  m.Description,
		CreatedAt:    m.CreatedAt,
	}
}
