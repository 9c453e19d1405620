package server

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/core"
	"RouterLedger/internal/router"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// apiMux builds the HTTP/JSON API on a gRPC-Gateway ServeMux. Handlers are
// registered via HandlePath so the API shares the gateway's routing and
// path-parameter handling without generated stubs.
func (s *Server) apiMux() (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux()

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{"POST", "/v1/execute", s.handleExecute},
		{"GET", "/v1/config", s.handleConfig},
		{"GET", "/v1/stats", s.handleStats},
		{"GET", "/v1/orders/{order_id}", s.handleOrder},
		{"GET", "/v1/users/{user}/orders", s.handleUserOrders},
		{"GET", "/v1/users/{user}/liquidity/{asset}", s.handleUserLiquidity},
		{"GET", "/v1/fees/{asset}", s.handleFeeInfo},
	}

	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}

	return mux, nil
}

type executeResponse struct {
	Attributes []router.Attribute `json:"attributes"`
	Transfers  []router.Transfer  `json:"transfers"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleExecute accepts a command envelope and applies it synchronously.
// The NATS subject carries the same wire format; this endpoint exists for
// tooling and low-volume callers.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.writeError(w, "execute", http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	env, err := command.ParseEnvelope(body)
	if err != nil {
		s.writeError(w, "execute", http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	resp, err := s.engine.Execute(*env)
	if err != nil {
		s.writeExecuteError(w, err)
		return
	}

	s.writeJSON(w, "execute", http.StatusOK, executeResponse{
		Attributes: resp.Attributes,
		Transfers:  resp.Transfers,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	config, err := s.engine.Config()
	if err != nil {
		s.writeError(w, "config", http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, "config", http.StatusOK, config)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	stats, err := s.engine.Stats()
	if err != nil {
		s.writeError(w, "stats", http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, "stats", http.StatusOK, stats)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	orderID := pathParams["order_id"]
	order, err := s.engine.Order(orderID)
	if err != nil {
		s.writeError(w, "order", http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if order == nil {
		s.writeError(w, "order", http.StatusNotFound, "order_not_found",
			fmt.Sprintf("no order with id %s", orderID))
		return
	}
	s.writeJSON(w, "order", http.StatusOK, order)
}

func (s *Server) handleUserOrders(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	ids, err := s.engine.UserOrders(pathParams["user"])
	if err != nil {
		s.writeError(w, "user_orders", http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, "user_orders", http.StatusOK, map[string]interface{}{
		"orders": ids,
	})
}

func (s *Server) handleUserLiquidity(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	user, asset := pathParams["user"], pathParams["asset"]
	balance, err := s.engine.UserLiquidity(user, asset)
	if err != nil {
		s.writeError(w, "user_liquidity", http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, "user_liquidity", http.StatusOK, map[string]interface{}{
		"user":    user,
		"asset":   asset,
		"balance": balance,
	})
}

func (s *Server) handleFeeInfo(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	fee, err := s.engine.FeeInfo(pathParams["asset"])
	if err != nil {
		s.writeError(w, "fee_info", http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, "fee_info", http.StatusOK, map[string]interface{}{
		"asset":     pathParams["asset"],
		"rate":      fee.Rate.String(),
		"collected": fee.Collected,
		"is_active": fee.IsActive,
	})
}

// writeExecuteError maps the error taxonomy onto HTTP statuses. Every
// rejection is a 4xx: the command was understood and refused, and
// re-submitting it unchanged will refuse again.
func (s *Server) writeExecuteError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrDuplicateCommand) {
		s.writeError(w, "execute", http.StatusConflict, "duplicate_command", err.Error())
		return
	}

	code := router.Code(err)
	status := http.StatusBadRequest
	switch code {
	case "unauthorized":
		status = http.StatusForbidden
	case "order_not_found":
		status = http.StatusNotFound
	case "order_not_active":
		status = http.StatusConflict
	case "payment_required":
		status = http.StatusPaymentRequired
	case "internal":
		status = http.StatusInternalServerError
	}

	s.writeError(w, "execute", status, code, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, status int, v interface{}) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("response encode failed")
	}
	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
		s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Message: message})
	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
		s.metrics.QueryErrors.WithLabelValues(endpoint, code).Inc()
	}
}
