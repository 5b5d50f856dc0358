package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/finledger/internal/tracker"
)

// NewServer creates an HTTP server with all routes configured. When adminAPIKey is set,
// mutating routes and backups require it as a Bearer token.
func NewServer(port string, t *tracker.Tracker, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(NewHandler(t), adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers the API routes.
func NewMux(handler *Handler, adminAPIKey string) *http.ServeMux {
	protect := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ledger", handler.ListLedger)
	mux.Handle("POST /api/v1/ledger", protect(handler.UpsertEntry))
	mux.Handle("DELETE /api/v1/ledger/{id}", protect(handler.DeleteEntry))
	mux.Handle("POST /api/v1/ledger/scan", protect(handler.AcceptScan))

	mux.HandleFunc("GET /api/v1/assets", handler.ListAssets)
	mux.HandleFunc("GET /api/v1/assets/stale", handler.ListStaleAssets)
	mux.Handle("POST /api/v1/assets", protect(handler.UpsertAsset))
	mux.Handle("DELETE /api/v1/assets/{id}", protect(handler.DeleteAsset))
	mux.Handle("POST /api/v1/assets/{id}/verify", protect(handler.VerifyAsset))
	mux.Handle("PUT /api/v1/assets/{id}/market-price", protect(handler.PutMarketPrice))
	mux.HandleFunc("GET /api/v1/assets/{id}/valuation", handler.GetValuation)
	mux.HandleFunc("GET /api/v1/net-worth", handler.GetNetWorth)

	mux.HandleFunc("GET /api/v1/budgets", handler.ListBudgets)
	mux.Handle("POST /api/v1/budgets", protect(handler.UpsertBudget))
	mux.Handle("DELETE /api/v1/budgets/{id}", protect(handler.DeleteBudget))
	mux.HandleFunc("GET /api/v1/budgets/progress", handler.GetBudgetProgress)
	mux.HandleFunc("GET /api/v1/spending", handler.GetSpending)
	mux.HandleFunc("GET /api/v1/cash-flow", handler.GetCashFlow)

	mux.HandleFunc("GET /api/v1/convert", handler.GetConvert)
	mux.HandleFunc("GET /api/v1/rates", handler.GetRates)

	mux.HandleFunc("GET /api/v1/settings/salary", handler.GetSalary)
	mux.Handle("PUT /api/v1/settings/salary", protect(handler.PutSalary))
	mux.HandleFunc("GET /api/v1/settings/budget", handler.GetMonthlyBudget)
	mux.Handle("PUT /api/v1/settings/budget", protect(handler.PutMonthlyBudget))

	mux.Handle("GET /api/v1/backup", protect(handler.GetBackup))
	mux.Handle("POST /api/v1/backup", protect(handler.PostBackup))
	mux.Handle("POST /api/v1/repair", protect(handler.Repair))

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
