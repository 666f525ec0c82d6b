package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/spendguard/internal/config"
	"github.com/gyaneshwarpardhi/spendguard/internal/engine"
	"github.com/gyaneshwarpardhi/spendguard/internal/metrics"
	"github.com/gyaneshwarpardhi/spendguard/internal/policy"
	"github.com/gyaneshwarpardhi/spendguard/internal/request"
)

const maxBatchSize = 100

// readyThreshold is the queue utilization above which /readyz reports 503.
const readyThreshold = 0.8

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
}

// New creates an HTTP handler and registers all routes. loader may be nil
// when the engine runs on built-in rules; reloads are then refused. The
// caller wires loader.OnChange to eng.ApplyConfig.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/approvals/evaluate", h.evaluate)
		r.Post("/approvals/batch", h.evaluateBatch)
		r.Post("/checkout", h.checkout)

		r.Get("/rules", h.listRules)
		r.Post("/rules/reload", h.reloadRules)

		r.Route("/accounts/{account}", func(r chi.Router) {
			r.Post("/records", h.recordSpending)
			r.Get("/spending", h.spending)
			r.Get("/forecast", h.forecast)
			r.Get("/savings", h.savings)
		})

		r.Post("/spending/check", h.checkPurchase)
		r.Post("/spending/trend", h.trend)
	})

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// POST /v1/approvals/evaluate: synchronous evaluation of one request.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req request.ApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	d, err := h.eng.Evaluate(r.Context(), &req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// POST /v1/approvals/batch: async batch evaluation (up to 100 requests).
func (h *Handler) evaluateBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []*request.ApprovalRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one request")
		return
	}
	if len(reqs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(reqs), maxBatchSize))
		return
	}
	for i, req := range reqs {
		if req == nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("request %d is null", i))
			return
		}
	}
	writeJSON(w, http.StatusAccepted, h.eng.EvaluateBatch(reqs))
}

// POST /v1/checkout: approval rules plus the account's spending limit.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req request.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	res, err := h.eng.Checkout(r.Context(), &req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/rules: the policy in effect.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	p := h.eng.Policy()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     p.Version(),
		"fingerprint": p.Fingerprint(),
		"rules":       p.Rules(),
		"limits":      p.Limits(),
		"accounts":    p.Accounts(),
	})
}

// POST /v1/rules/reload: hot-reload the policy from disk. The loader's
// OnChange hook (Engine.ApplyConfig) performs the swap.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusConflict, "no policy file configured")
		return
	}
	if _, err := h.loader.Reload(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	p := h.eng.Policy()
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":    true,
		"version":     p.Version(),
		"fingerprint": p.Fingerprint(),
		"rules_count": len(p.Rules()),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the evaluation queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > readyThreshold {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, engine.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, policy.ErrUnknownAccount):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrAmountRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
