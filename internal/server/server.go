// Package server exposes the insights service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/KaramelBytes/estatelens-cli/internal/insights"
	"github.com/KaramelBytes/estatelens-cli/internal/log"
	"github.com/KaramelBytes/estatelens-cli/internal/metrics"
)

// Service is the subset of insights.Service the API needs.
type Service interface {
	Analyze(ctx context.Context, req insights.AnalyzeRequest) (*insights.AnalyzeResponse, error)
	Compare(ctx context.Context, req insights.CompareRequest) (*insights.CompareResponse, error)
	Profile(top int) insights.Profile
}

// Options tunes the API.
type Options struct {
	// DebugErrors includes the full error text of server-side failures.
	DebugErrors  bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// API serves analyze, compare, health and metrics endpoints.
type API struct {
	svc    Service
	opts   Options
	logger log.Logger
	mux    *http.ServeMux
	server *http.Server
}

// New builds the API bound to address.
func New(svc Service, address string, opts Options, logger log.Logger) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	a := &API{svc: svc, opts: opts, logger: logger, mux: http.NewServeMux()}

	a.mux.HandleFunc("/api/analyze", a.handleAnalyze)
	a.mux.HandleFunc("/api/compare", a.handleCompare)
	a.mux.HandleFunc("/api/profile", a.handleProfile)
	a.mux.HandleFunc("/healthz", a.handleHealth)
	a.mux.Handle("/metrics", metrics.Handler())

	a.server = &http.Server{
		Addr:         address,
		Handler:      a.mux,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return a
}

// Handler returns the route multiplexer.
func (a *API) Handler() http.Handler { return a.mux }

// Addr returns the configured listen address.
func (a *API) Addr() string { return a.server.Addr }

// Run serves until ctx is canceled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("shutting down")
	return a.server.Shutdown(shutdownCtx)
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req insights.AnalyzeRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req = insights.AnalyzeRequest{Query: q.Get("query"), Area: q.Get("area"), Where: q.Get("where")}
	case http.MethodPost:
		if !a.decode(w, r, &req) {
			return
		}
	default:
		a.methodNotAllowed(w)
		return
	}
	resp, err := a.svc.Analyze(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req insights.CompareRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req = insights.CompareRequest{Areas: q.Get("areas"), Prompt: q.Get("prompt"), Where: q.Get("where")}
	case http.MethodPost:
		if !a.decode(w, r, &req) {
			return
		}
	default:
		a.methodNotAllowed(w)
		return
	}
	resp, err := a.svc.Compare(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.methodNotAllowed(w)
		return
	}
	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "top must be a non-negative integer"})
			return
		}
		top = n
	}
	a.writeJSON(w, http.StatusOK, a.svc.Profile(top))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.methodNotAllowed(w)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Detail: err.Error()})
		return false
	}
	return true
}

func (a *API) methodNotAllowed(w http.ResponseWriter) {
	a.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
}

// writeError maps service errors to status codes. Input errors always carry
// their detail; server-side detail is shown only with DebugErrors.
func (a *API) writeError(w http.ResponseWriter, err error) {
	var e insights.Err
	if !errors.As(err, &e) {
		e = insights.Err{Code: insights.CodeInternal, Title: "internal error"}
	}
	body := errorBody{Error: e.Title}
	status := http.StatusInternalServerError
	if e.Code == insights.CodeInput {
		status = http.StatusBadRequest
		body.Detail = err.Error()
	} else {
		a.logger.Error("request failed", "err", err)
		if a.opts.DebugErrors {
			body.Detail = err.Error()
		}
	}
	a.writeJSON(w, status, body)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("failed to write response", "err", err)
	}
}
