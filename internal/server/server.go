// Package server exposes the pricing engine and the implied-volatility
// solvers over HTTP.
//
// Routes:
//
//	GET  /health     liveness probe
//	POST /v1/price   Black-Scholes price, d1/d2 and vega for one contract
//	POST /v1/iv      implied volatility with the requested (or default) method
//	GET  /metrics    Prometheus exposition
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/contactkeval/iv-solver/internal/impliedvol"
	"github.com/contactkeval/iv-solver/internal/logger"
	"github.com/contactkeval/iv-solver/internal/metrics"
	"github.com/contactkeval/iv-solver/internal/pricing"
)

// Handler serves solver requests. It holds only read-only configuration,
// so one Handler is shared by all request goroutines.
type Handler struct {
	solverCfg     impliedvol.Config
	defaultMethod impliedvol.Method
	metrics       *metrics.SolverMetrics
}

func NewHandler(solverCfg impliedvol.Config, defaultMethod impliedvol.Method, m *metrics.SolverMetrics) *Handler {
	if m == nil {
		m = metrics.New()
	}
	return &Handler{solverCfg: solverCfg, defaultMethod: defaultMethod, metrics: m}
}

// Router wires the routes onto a gorilla/mux router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/v1/price", h.PriceHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/iv", h.ImpliedVolHandler).Methods(http.MethodPost)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	return r
}

// PriceRequest is the body of POST /v1/price.
type PriceRequest struct {
	Spot   float64 `json:"spot"`
	Strike float64 `json:"strike"`
	Rate   float64 `json:"rate"`
	Tau    float64 `json:"tau"` // seconds
	Sigma  float64 `json:"sigma"`
	IsCall bool    `json:"is_call"`
}

type PriceResponse struct {
	Price float64 `json:"price"`
	Call  float64 `json:"call"`
	Put   float64 `json:"put"`
	D1    float64 `json:"d1"`
	D2    float64 `json:"d2"`
	Vega  float64 `json:"vega"`
}

// ImpliedVolRequest is the body of POST /v1/iv. Method is optional.
type ImpliedVolRequest struct {
	impliedvol.Inputs
	Method string `json:"method,omitempty"`
}

type ImpliedVolResponse struct {
	Method impliedvol.Method `json:"method"`
	impliedvol.Result
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	h.metrics.ObservePricing()

	d1, d2, err := pricing.ProbFactors(req.Spot, req.Strike, req.Rate, req.Sigma, req.Tau)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	// inputs already validated by ProbFactors
	call, _ := pricing.CallPrice(req.Spot, req.Strike, req.Rate, req.Sigma, req.Tau)
	put, _ := pricing.PutPrice(req.Spot, req.Strike, req.Rate, req.Sigma, req.Tau)
	vega, _ := pricing.Vega(req.Spot, req.Strike, req.Rate, req.Sigma, req.Tau)

	resp := PriceResponse{Price: put, Call: call, Put: put, D1: d1, D2: d2, Vega: vega}
	if req.IsCall {
		resp.Price = call
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ImpliedVolHandler(w http.ResponseWriter, r *http.Request) {
	var req ImpliedVolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	method := h.defaultMethod
	if req.Method != "" {
		m, err := impliedvol.ParseMethod(req.Method)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		method = m
	}

	start := time.Now()
	res, err := impliedvol.Solve(method, req.Inputs, h.solverCfg)
	if err != nil {
		h.metrics.ObserveError(string(method))
		logger.Debugf("iv request rejected method=%s: %v", method, err)
		writeError(w, statusFor(err), err)
		return
	}
	h.metrics.ObserveSolve(string(method), res.Status.String(), res.Iterations, time.Since(start))

	logger.WithFields(map[string]any{
		"method":     method,
		"sigma":      res.Sigma,
		"status":     res.Status.String(),
		"iterations": res.Iterations,
	}).Debug("iv solved")

	writeJSON(w, http.StatusOK, ImpliedVolResponse{Method: method, Result: res})
}

// statusFor maps solver errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrDomain), errors.Is(err, impliedvol.ErrInvalidBracket):
		return http.StatusUnprocessableEntity
	case errors.Is(err, impliedvol.ErrUnknownMethod), errors.Is(err, impliedvol.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting HTTP server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Infof("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
