package api

import (
	"net/http"

	"github.com/mtlprog/finledger/internal/domain"
)

// ListBudgets handles GET /api/v1/budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets := h.tracker.LoadBudgets(r.Context())
	if budgets == nil {
		budgets = []domain.BudgetDefinition{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

// UpsertBudget handles POST /api/v1/budgets.
func (h *Handler) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	var def domain.BudgetDefinition
	if !decodeBody(w, r, &def) {
		return
	}
	stored, created, err := h.tracker.UpsertBudget(r.Context(), def)
	if err != nil {
		writeTrackerError(w, "failed to save budget", err)
		return
	}
	writeJSON(w, createdStatus(created), stored)
}

// DeleteBudget handles DELETE /api/v1/budgets/{id}.
func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		writeTrackerError(w, "failed to delete budget", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBudgetProgress handles GET /api/v1/budgets/progress.
func (h *Handler) GetBudgetProgress(w http.ResponseWriter, r *http.Request) {
	win, code, ok := h.windowAndCurrency(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.BudgetProgress(r.Context(), win, code))
}
