package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mtlprog/finledger/internal/budget"
	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/tracker"
)

const maxBodyBytes = 1 << 20

// Handler provides HTTP endpoints for the finance tracker.
type Handler struct {
	tracker *tracker.Tracker
	now     func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(t *tracker.Tracker) *Handler {
	return &Handler{tracker: t, now: time.Now}
}

// ListLedger handles GET /api/v1/ledger.
func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var query tracker.LedgerQuery
	if m := q.Get("month"); m != "" {
		win, err := budget.ParseMonth(m, h.now())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month format, expected YYYY-MM")
			return
		}
		query.Window = &win
	}
	if k := q.Get("kind"); k != "" {
		query.Kind = domain.ParseEntryKind(k)
	}
	query.Category = q.Get("category")
	query.Scanned, _ = strconv.ParseBool(q.Get("scanned"))
	query.Recurring, _ = strconv.ParseBool(q.Get("recurring"))

	entries := h.tracker.QueryLedger(r.Context(), query)
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// UpsertEntry handles POST /api/v1/ledger.
func (h *Handler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	var e domain.LedgerEntry
	if !decodeBody(w, r, &e) {
		return
	}
	stored, created, err := h.tracker.UpsertEntry(r.Context(), e)
	if err != nil {
		writeTrackerError(w, "failed to save entry", err)
		return
	}
	writeJSON(w, createdStatus(created), stored)
}

// DeleteEntry handles DELETE /api/v1/ledger/{id}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		writeTrackerError(w, "failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptScan handles POST /api/v1/ledger/scan.
func (h *Handler) AcceptScan(w http.ResponseWriter, r *http.Request) {
	var d domain.ScanDraft
	if !decodeBody(w, r, &d) {
		return
	}
	e, err := h.tracker.AcceptScan(r.Context(), d)
	if err != nil {
		writeTrackerError(w, "failed to accept scan", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// GetSpending handles GET /api/v1/spending.
func (h *Handler) GetSpending(w http.ResponseWriter, r *http.Request) {
	win, code, ok := h.windowAndCurrency(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window":     win,
		"currency":   h.tracker.DisplayCurrency(code),
		"categories": h.tracker.SpentByCategory(r.Context(), win, code),
	})
}

// GetCashFlow handles GET /api/v1/cash-flow.
func (h *Handler) GetCashFlow(w http.ResponseWriter, r *http.Request) {
	win, code, ok := h.windowAndCurrency(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.CashFlow(r.Context(), win, code))
}

// GetConvert handles GET /api/v1/convert.
func (h *Handler) GetConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, ok := domain.ParseAmount(q.Get("amount"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	from, to := q.Get("from"), q.Get("to")
	for _, code := range []string{from, to} {
		if code != "" && !currency.Known(code) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown currency %q", code))
			return
		}
	}
	from = currency.Normalize(from, domain.DefaultCurrency)
	to = h.tracker.DisplayCurrency(to)

	result := h.tracker.Convert(r.Context(), amount, from, to)
	writeJSON(w, http.StatusOK, map[string]any{
		"amount":     amount,
		"from":       from,
		"to":         to,
		"result":     result,
		"formatted":  currency.Format(result, to),
		"isEstimate": h.tracker.Rates(r.Context(), "").IsFallback,
	})
}

// GetRates handles GET /api/v1/rates.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	code, ok := currencyParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Rates(r.Context(), code))
}

// GetSalary handles GET /api/v1/settings/salary.
func (h *Handler) GetSalary(w http.ResponseWriter, r *http.Request) {
	getMoney(w, r, "salary", h.tracker.Salary)
}

// PutSalary handles PUT /api/v1/settings/salary.
func (h *Handler) PutSalary(w http.ResponseWriter, r *http.Request) {
	putMoney(w, r, "salary", h.tracker.Salary, h.tracker.SetSalary)
}

// GetMonthlyBudget handles GET /api/v1/settings/budget.
func (h *Handler) GetMonthlyBudget(w http.ResponseWriter, r *http.Request) {
	getMoney(w, r, "monthly budget", h.tracker.MonthlyBudget)
}

// PutMonthlyBudget handles PUT /api/v1/settings/budget.
func (h *Handler) PutMonthlyBudget(w http.ResponseWriter, r *http.Request) {
	putMoney(w, r, "monthly budget", h.tracker.MonthlyBudget, h.tracker.SetMonthlyBudget)
}

type (
	loadMoneyFunc func(context.Context) (domain.MoneySetting, bool)
	saveMoneyFunc func(context.Context, domain.MoneySetting) error
)

func getMoney(w http.ResponseWriter, r *http.Request, what string, load loadMoneyFunc) {
	m, ok := load(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, what+" not set")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func putMoney(w http.ResponseWriter, r *http.Request, what string, load loadMoneyFunc, save saveMoneyFunc) {
	var m domain.MoneySetting
	if !decodeBody(w, r, &m) {
		return
	}
	if err := save(r.Context(), m); err != nil {
		writeTrackerError(w, "failed to save "+what, err)
		return
	}
	m, _ = load(r.Context())
	writeJSON(w, http.StatusOK, m)
}

// Repair handles POST /api/v1/repair.
func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	reports, err := h.tracker.Repair(r.Context())
	if err != nil {
		slog.Error("repair failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "repair incomplete", "collections": reports})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": reports})
}

func (h *Handler) windowAndCurrency(w http.ResponseWriter, r *http.Request) (budget.Window, string, bool) {
	win, err := budget.ParseMonth(r.URL.Query().Get("month"), h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format, expected YYYY-MM")
		return budget.Window{}, "", false
	}
	code, ok := currencyParam(w, r)
	return win, code, ok
}

// currencyParam reads the optional display currency. Empty means the configured default.
func currencyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := strings.TrimSpace(r.URL.Query().Get("currency"))
	if code != "" && !currency.Known(code) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown currency %q", code))
		return "", false
	}
	return code, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func writeTrackerError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrDuplicateBudget):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tracker.ErrInvalid), errors.Is(err, domain.ErrInvalidAsset):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
