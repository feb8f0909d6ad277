package simulator

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/bet-service/payment"
)

// StoredPreference guarda o que foi pedido junto com a resposta devolvida
type StoredPreference struct {
	payment.Preference
	Request        payment.PreferenceRequest `json:"request"`
	IdempotencyKey string                    `json:"idempotency_key,omitempty"`
}

// Server imita o endpoint de preferências de checkout do provedor de pagamento
type Server struct {
	log      *zap.Logger
	token    string // vazio = não exige Authorization
	failRate int    // % de respostas 500 simuladas
	baseURL  string

	mu    sync.RWMutex
	prefs map[string]StoredPreference
	byKey map[string]string

	OnCreated func()

	rnd func(n int) int
}

func NewServer(log *zap.Logger, token string, failRate int, baseURL string) *Server {
	return &Server{
		log:      log,
		token:    token,
		failRate: failRate,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		prefs:    make(map[string]StoredPreference),
		byKey:    make(map[string]string),
		rnd:      rand.Intn,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/checkout/preferences", s.create)
	r.Get("/checkout/preferences/{id}", s.get)
	return r
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid access token"})
		return
	}

	var req payment.PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	if msg := validate(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": msg})
		return
	}

	key := r.Header.Get("X-Idempotency-Key")
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok && key != "" {
		writeJSON(w, http.StatusCreated, s.prefs[id].Preference)
		return
	}
	if s.failRate > 0 && s.rnd(100) < s.failRate {
		s.log.Warn("simulated provider failure", zap.String("external_reference", req.ExternalReference))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal_error"})
		return
	}

	id := uuid.NewString()
	pref := payment.Preference{
		ID:               id,
		InitPoint:        s.baseURL + "/checkout/v1/redirect?pref_id=" + id,
		SandboxInitPoint: s.baseURL + "/sandbox/checkout/v1/redirect?pref_id=" + id,
	}
	s.prefs[id] = StoredPreference{Preference: pref, Request: req, IdempotencyKey: key}
	if key != "" {
		s.byKey[key] = id
	}
	if s.OnCreated != nil {
		s.OnCreated()
	}
	s.log.Info("preference created", zap.String("id", id), zap.String("external_reference", req.ExternalReference))
	writeJSON(w, http.StatusCreated, pref)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	p, ok := s.prefs[chi.URLParam(r, "id")]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "preference not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func validate(req payment.PreferenceRequest) string {
	if len(req.Items) == 0 {
		return "items required"
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return "quantity must be positive"
		}
		if !it.UnitPrice.IsPositive() {
			return "unit_price must be positive"
		}
	}
	if req.ExternalReference == "" {
		return "external_reference required"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
