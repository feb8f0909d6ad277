package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Targets são as URLs base dos serviços atrás do gateway
type Targets struct {
	Bet      string
	Customer string
	Admin    string
	Results  string
}

func rp(to string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, err
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("target", to), zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream_unavailable","message":"Servicio no disponible"}`))
	}
	return p, nil
}

// New monta o roteamento público:
//
//	/api/bets/*      -> bet-service      (sem o prefixo /api/bets)
//	/api/customers/* -> customer-service (sem /api)
//	/api/admin/*     -> admin-service    (sem /api)
//	/api/results/*   -> results-service  (sem /api/results; inclui o /ws)
func New(t Targets, log *zap.Logger) (http.Handler, error) {
	bet, err := rp(t.Bet, log)
	if err != nil {
		return nil, err
	}
	customer, err := rp(t.Customer, log)
	if err != nil {
		return nil, err
	}
	admin, err := rp(t.Admin, log)
	if err != nil {
		return nil, err
	}
	results, err := rp(t.Results, log)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/bets/", http.StripPrefix("/api/bets", bet))
	mux.Handle("/api/customers", http.StripPrefix("/api", customer))
	mux.Handle("/api/customers/", http.StripPrefix("/api", customer))
	mux.Handle("/api/admin/", http.StripPrefix("/api", admin))
	mux.Handle("/api/results/", http.StripPrefix("/api/results", results))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return WithCORS(mux), nil
}

// WithCORS libera o front-end e responde o preflight
func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}, ", "))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
