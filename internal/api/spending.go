package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

const (
	defaultForecastDays  = 7
	maxForecastDays      = 366
	defaultSavingsTarget = 80
)

// POST /v1/accounts/{account}/records
func (h *Handler) recordSpending(w http.ResponseWriter, r *http.Request) {
	var rec spending.Record
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	id, err := h.eng.RecordSpending(r.Context(), chi.URLParam(r, "account"), rec)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GET /v1/accounts/{account}/spending?date=YYYY-MM-DD
func (h *Handler) spending(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.refDate(w, r)
	if !ok {
		return
	}
	s, err := h.eng.Spending(r.Context(), chi.URLParam(r, "account"), ref)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /v1/accounts/{account}/forecast?days=N
func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.refDate(w, r)
	if !ok {
		return
	}
	days := defaultForecastDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxForecastDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be an integer between 0 and %d", maxForecastDays))
			return
		}
		days = n
	}
	points, err := h.eng.Forecast(r.Context(), chi.URLParam(r, "account"), ref, days)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

// GET /v1/accounts/{account}/savings?target=PCT
func (h *Handler) savings(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.refDate(w, r)
	if !ok {
		return
	}
	target := float64(defaultSavingsTarget)
	if v := r.URL.Query().Get("target"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 100 {
			writeError(w, http.StatusBadRequest, "target must be a percentage between 0 and 100")
			return
		}
		target = f
	}
	s, err := h.eng.Savings(r.Context(), chi.URLParam(r, "account"), ref, target)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type purchaseCheckRequest struct {
	Amount      float64 `json:"amount"`
	Spent       float64 `json:"spent"`
	Limit       float64 `json:"limit"`
	AllowExceed bool    `json:"allow_exceed"`
}

// POST /v1/spending/check: stateless purchase gate.
func (h *Handler) checkPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, spending.CanMakePurchase(req.Amount, req.Spent, req.Limit, req.AllowExceed))
}

type trendRequest struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// POST /v1/spending/trend
func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	var req trendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, spending.CalculateTrend(req.Current, req.Previous))
}

// refDate reads the optional date query parameter, in RFC 3339 or
// YYYY-MM-DD form. It writes a 400 and returns false when malformed.
func (h *Handler) refDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return h.eng.Now(), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q: want YYYY-MM-DD or RFC 3339", v))
		return time.Time{}, false
	}
	return t, true
}
