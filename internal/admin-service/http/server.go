package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/admin-service/dto"
	"github.com/radieske/quiniela-platform/internal/admin-service/repo"
	"github.com/radieske/quiniela-platform/internal/shared/auth"
	"github.com/radieske/quiniela-platform/internal/wager"
	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

const maxResultNumber = 9999

type RulesStore interface {
	Rules(ctx context.Context) (wager.Config, error)
	SaveRules(ctx context.Context, cfg wager.Config, updatedBy string) error
}

type ResultsRepo interface {
	UpsertResult(ctx context.Context, r repo.Result) (repo.Result, error)
	DeleteResult(ctx context.Context, lottery, typ, drawDate string) (bool, error)
}

type Broadcaster interface {
	Invalidate(ctx context.Context, drawDate string) error
	PublishResult(ctx context.Context, e events.ResultPublished) error
}

// Server expõe a área administrativa: regras de aposta e publicação de resultados
type Server struct {
	log     *zap.Logger
	rules   RulesStore
	results ResultsRepo
	bcast   Broadcaster
	authn   func(http.Handler) http.Handler

	OnResultPublished func()
}

func NewServer(log *zap.Logger, rules RulesStore, results ResultsRepo, bcast Broadcaster, authn func(http.Handler) http.Handler) *Server {
	return &Server{log: log, rules: rules, results: results, bcast: bcast, authn: authn}
}

// Router: todas as rotas exigem role admin
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authn, auth.RequireRole(auth.RoleAdmin))
	r.Get("/admin/settings", s.getSettings)
	r.Put("/admin/settings", s.putSettings)
	r.Post("/admin/results", s.publishResult)
	r.Delete("/admin/results/{lottery}/{type}/{date}", s.deleteResult)
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

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.rules.Rules(r.Context())
	if err != nil {
		s.log.Error("load rules", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "rules_unavailable", "No se pudieron cargar las reglas")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var cfg wager.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
		return
	}
	if cfg.PrizeMode == "" {
		cfg.PrizeMode = wager.PrizeModePosition
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_settings", err.Error())
		return
	}
	p, _ := auth.FromContext(r.Context())
	if err := s.rules.SaveRules(r.Context(), cfg, p.UID); err != nil {
		s.log.Error("save rules", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	s.log.Info("wager rules updated",
		zap.String("by", p.UID),
		zap.String("min_bet", cfg.MinBet.String()),
		zap.String("max_per_number", cfg.MaxPerNumber.String()),
		zap.String("max_global_risk", cfg.MaxGlobalRisk.String()))
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) publishResult(w http.ResponseWriter, r *http.Request) {
	var req dto.PublishResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "JSON inválido")
		return
	}
	cfg, err := s.rules.Rules(r.Context())
	if err != nil {
		s.log.Error("load rules", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "rules_unavailable", "No se pudieron cargar las reglas")
		return
	}
	if code, msg := validateResult(req, cfg); code != "" {
		writeError(w, http.StatusUnprocessableEntity, code, msg)
		return
	}

	p, _ := auth.FromContext(r.Context())
	res, err := s.results.UpsertResult(r.Context(), repo.Result{
		LotteryName: req.LotteryName,
		LotteryType: req.LotteryType,
		DrawDate:    req.DrawDate,
		Numbers:     req.Numbers,
		PublishedBy: p.UID,
	})
	if err != nil {
		s.log.Error("upsert result", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}

	s.announce(r.Context(), events.ResultPublished{
		LotteryName: res.LotteryName,
		LotteryType: res.LotteryType,
		DrawDate:    res.DrawDate,
		Numbers:     res.Numbers,
		PublishedAt: res.UpdatedAt,
	})
	if s.OnResultPublished != nil {
		s.OnResultPublished()
	}
	s.log.Info("result published",
		zap.String("lottery", res.LotteryName),
		zap.String("type", res.LotteryType),
		zap.String("draw_date", res.DrawDate),
		zap.Int("head", res.Numbers[0]))
	writeJSON(w, http.StatusCreated, dto.ResultResponse{
		LotteryName: res.LotteryName,
		LotteryType: res.LotteryType,
		DrawDate:    res.DrawDate,
		Numbers:     res.Numbers,
		PublishedBy: res.PublishedBy,
		UpdatedAt:   res.UpdatedAt,
	})
}

func (s *Server) deleteResult(w http.ResponseWriter, r *http.Request) {
	lottery, typ, date := chi.URLParam(r, "lottery"), chi.URLParam(r, "type"), chi.URLParam(r, "date")
	if _, err := time.Parse(wager.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "Fecha inválida")
		return
	}
	found, err := s.results.DeleteResult(r.Context(), lottery, typ, date)
	if err != nil {
		s.log.Error("delete result", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "Error interno")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Resultado no encontrado")
		return
	}
	s.announce(r.Context(), events.ResultPublished{
		LotteryName: lottery,
		LotteryType: typ,
		DrawDate:    date,
		Retracted:   true,
		PublishedAt: time.Now().UTC(),
	})
	s.log.Info("result retracted", zap.String("lottery", lottery), zap.String("type", typ), zap.String("draw_date", date))
	w.WriteHeader(http.StatusNoContent)
}

// announce invalida o cache e avisa os assinantes; falhas só geram log
func (s *Server) announce(ctx context.Context, e events.ResultPublished) {
	if err := s.bcast.Invalidate(ctx, e.DrawDate); err != nil {
		s.log.Warn("invalidate results cache", zap.String("draw_date", e.DrawDate), zap.Error(err))
	}
	if err := s.bcast.PublishResult(ctx, e); err != nil {
		s.log.Warn("broadcast result", zap.String("draw_date", e.DrawDate), zap.Error(err))
	}
}

func validateResult(req dto.PublishResultRequest, cfg wager.Config) (code, msg string) {
	if req.LotteryName == "" || req.LotteryType == "" {
		return "invalid_payload", "Lotería y turno son obligatorios"
	}
	if len(cfg.Lotteries) > 0 && !cfg.HasLottery(req.LotteryName) {
		return string(wager.CodeUnknownLottery), "Lotería inválida"
	}
	if _, ok := cfg.ShiftByID(req.LotteryType); len(cfg.Shifts) > 0 && !ok {
		return string(wager.CodeUnknownShift), "Turno inválido"
	}
	if _, err := time.Parse(wager.DateLayout, req.DrawDate); err != nil {
		return "invalid_date", "Fecha inválida"
	}
	if len(req.Numbers) != dto.ResultSize {
		return "invalid_numbers", "El extracto debe tener 20 números"
	}
	for _, n := range req.Numbers {
		if n < 0 || n > maxResultNumber {
			return "invalid_numbers", "Cada número debe estar entre 0 y 9999"
		}
	}
	return "", ""
}
