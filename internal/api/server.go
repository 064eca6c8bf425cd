// Package api serves the swap operations as a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"swaphelper/internal/apperr"
	"swaphelper/internal/config"
	"swaphelper/internal/swap"
)

type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	swap    *swap.Service
	metrics *metrics
}

func NewServer(cfg *config.Config, logger *slog.Logger, swapSvc *swap.Service) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{cfg: cfg, logger: logger, swap: swapSvc, metrics: newMetrics()}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.cfg.API.RatePerMinute > 0 {
		r.Use(httprate.LimitByIP(s.cfg.API.RatePerMinute, time.Minute))
	}

	r.Get("/health", s.handleHealth)
	if s.cfg.API.EnableMetrics {
		r.Handle("/metrics", s.metrics.handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withAuth)
		if d := s.cfg.Performance.RequestTimeout.Duration; d > 0 {
			r.Use(middleware.Timeout(d))
		}
		r.Get("/balances", s.handleBalances)
		r.Post("/swap/raw-transaction", s.handleRawTransaction)
		r.Post("/swap/exchange-rate", s.handleExchangeRate)
		r.Post("/swap/estimated-gas", s.handleEstimatedGas)
		r.Post("/swap/approval", s.handleApproval)
	})
	return r
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.API.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxTimeout)
	}()
	s.logger.Info("api listening", "addr", s.cfg.API.Listen)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.API.AuthToken != "" {
			token := r.Header.Get("X-API-Key")
			if token == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					token = strings.TrimSpace(auth[7:])
				}
			}
			if token != s.cfg.API.AuthToken {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"chain":    s.cfg.Chain,
		"chain_id": s.cfg.ChainID,
		"router":   s.cfg.Router().Hex(),
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	decimals := uint64(18)
	if v := q.Get("decimals"); v != "" {
		d, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid decimals")
			return
		}
		decimals = d
	}
	token := q.Get("token")
	if token == "" {
		token = "eth"
	}
	req := swap.BalanceRequest{
		TokenAddress:     token,
		WalletAddress:    q.Get("wallet"),
		RequiredQuantity: q.Get("required"),
	}
	start := time.Now()
	res, err := s.swap.Balance(r.Context(), req, uint8(decimals))
	s.metrics.observe("balance", start, err)
	s.respond(w, "balance", res, err)
}

func (s *Server) handleRawTransaction(w http.ResponseWriter, r *http.Request) {
	var req swap.SwapRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	res, err := s.swap.RawTransaction(r.Context(), req)
	s.metrics.observe("rawTransaction", start, err)
	s.respond(w, "rawTransaction", res, err)
}

func (s *Server) handleExchangeRate(w http.ResponseWriter, r *http.Request) {
	var req swap.SwapRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	res, err := s.swap.GetExchangeRate(r.Context(), req)
	s.metrics.observe("getExchangeRate", start, err)
	s.respond(w, "getExchangeRate", res, err)
}

func (s *Server) handleEstimatedGas(w http.ResponseWriter, r *http.Request) {
	var req swap.SwapRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	res, err := s.swap.GetEstimatedGas(r.Context(), req)
	s.metrics.observe("getEstimatedGas", start, err)
	s.respond(w, "getEstimatedGas", res, err)
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	var req swap.ApprovalRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	res, err := s.swap.ApprovalRawTransaction(r.Context(), req)
	s.metrics.observe("approvalRawTransaction", start, err)
	s.respond(w, "approvalRawTransaction", res, err)
}

// respond writes {"response": v} or the translated error.
func (s *Server) respond(w http.ResponseWriter, op string, v interface{}, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"response": v})
		return
	}
	tr := apperr.Translate(err)
	status := statusFor(tr.Kind, err)
	var detail string
	var e *apperr.Error
	if errors.As(err, &e) {
		detail = e.Detail()
	} else {
		detail = err.Error()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("operation failed", "op", op, "error", detail)
	} else {
		s.logger.Info("operation rejected", "op", op, "error", detail)
	}
	writeJSON(w, status, map[string]string{"error": tr.Message, "kind": tr.Kind.String()})
}

func statusFor(kind apperr.Kind, err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch kind {
	case apperr.KindInvalidRequest:
		return http.StatusBadRequest
	case apperr.KindInsufficientBalance, apperr.KindNoRoute:
		return http.StatusUnprocessableEntity
	case apperr.KindChainRead, apperr.KindHTTP:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(b, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
