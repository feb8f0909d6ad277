package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/results-service/dto"
	"github.com/radieske/quiniela-platform/internal/results-service/repo"
	"github.com/radieske/quiniela-platform/internal/wager"
)

// Reader é a leitura de resultados no Postgres
type Reader interface {
	ListByDate(ctx context.Context, drawDate string) ([]dto.Result, error)
	Get(ctx context.Context, lottery, typ, drawDate string) (dto.Result, error)
}

// ResultsCache guarda a lista de resultados por data
type ResultsCache interface {
	GetResults(ctx context.Context, drawDate string, dst *[]dto.Result) (bool, error)
	SetResults(ctx context.Context, drawDate string, v []dto.Result, ttl time.Duration) error
}

type RulesSource interface {
	Rules(ctx context.Context) (wager.Config, error)
}

// API expõe a consulta de resultados e o WebSocket de acompanhamento
type API struct {
	Log      *zap.Logger
	ReadRepo Reader
	Cache    ResultsCache
	Rules    RulesSource
	WS       http.HandlerFunc
	TTL      time.Duration

	now func() time.Time
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/results", a.listResults)                      // Resultados de uma data
	r.Get("/v1/results/{lottery}/{type}/{date}", a.getResult) // Um sorteio específico
	r.Get("/v1/draws", a.listDraws)                          // Loterias e turnos vigentes
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func (a *API) config(ctx context.Context) wager.Config {
	cfg, err := a.Rules.Rules(ctx)
	if err != nil {
		a.Log.Warn("load rules, using defaults", zap.Error(err))
		return wager.DefaultConfig()
	}
	return cfg
}

// listResults retorna os resultados da data (padrão: hoje), preferencialmente do cache
func (a *API) listResults(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = wager.Today(a.clock(), a.config(r.Context()))
	} else if _, err := time.Parse(wager.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_date", "message": "Fecha inválida"})
		return
	}

	var fromCache []dto.Result
	if ok, _ := a.Cache.GetResults(r.Context(), date, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	res, err := a.ReadRepo.ListByDate(r.Context(), date)
	if err != nil {
		a.Log.Error("list results", zap.String("draw_date", date), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal", "message": "Error interno"})
		return
	}

	if res == nil {
		res = []dto.Result{}
	}
	_ = a.Cache.SetResults(r.Context(), date, res, a.TTL)
	writeJSON(w, http.StatusOK, res)
}

// getResult retorna o extracto de um sorteio
func (a *API) getResult(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(wager.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_date", "message": "Fecha inválida"})
		return
	}
	res, err := a.ReadRepo.Get(r.Context(), chi.URLParam(r, "lottery"), chi.URLParam(r, "type"), date)
	if errors.Is(err, repo.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "Resultado no encontrado"})
		return
	}
	if err != nil {
		a.Log.Error("get result", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal", "message": "Error interno"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) listDraws(w http.ResponseWriter, r *http.Request) {
	cfg := a.config(r.Context())
	writeJSON(w, http.StatusOK, dto.Draws{Lotteries: cfg.Lotteries, Shifts: cfg.Shifts, Timezone: cfg.Timezone})
}
