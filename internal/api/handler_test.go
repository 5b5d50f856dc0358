package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
	"github.com/mtlprog/finledger/internal/tracker"
	"github.com/mtlprog/finledger/internal/valuation"
)

const testKey = "secret-key"

type fixedRates struct{}

func (fixedRates) Current(_ context.Context, base string) domain.ExchangeRateSnapshot {
	snap := domain.ExchangeRateSnapshot{
		Base: "USD",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("0.92"),
			"GBP": decimal.RequireFromString("0.79"),
		},
		FetchedAt: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
	}
	if base == "" {
		return snap
	}
	return snap.Rebase(base)
}

type fixedGold struct{}

func (fixedGold) GoldPricePerGram(_ context.Context, currency string, _ domain.ExchangeRateSnapshot) domain.GoldQuote {
	return domain.NewGoldQuote(currency, decimal.NewFromInt(85), false, time.Time{})
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	st := store.New(store.NewMemoryBackend())
	tr := tracker.New(st, fixedRates{}, valuation.NewService(fixedGold{}), tracker.Options{DisplayCurrency: "USD"})
	h := NewHandler(tr)
	h.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return NewMux(h, testKey)
}

func do(t *testing.T, mux http.Handler, method, target, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return m
}

func TestLedgerRoutes(t *testing.T) {
	mux := newTestMux(t)
	entry := `{"id":"t1","amount":"42.50","currency":"usd","category":"Food","date":"2026-10-03"}`

	if w := do(t, mux, http.MethodPost, "/api/v1/ledger", entry, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated POST status = %d, want 401", w.Code)
	}
	if w := do(t, mux, http.MethodPost, "/api/v1/ledger", entry, true); w.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", w.Code, w.Body)
	}
	if w := do(t, mux, http.MethodPost, "/api/v1/ledger", entry, true); w.Code != http.StatusOK {
		t.Errorf("repeat POST status = %d, want 200", w.Code)
	}
	if w := do(t, mux, http.MethodPost, "/api/v1/ledger", `{"amount":`, true); w.Code != http.StatusBadRequest {
		t.Errorf("malformed POST status = %d, want 400", w.Code)
	}

	w := do(t, mux, http.MethodGet, "/api/v1/ledger?month=2026-10", "", false)
	var entries []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0]["id"] != "t1" || entries[0]["currency"] != "USD" {
		t.Errorf("entries = %v", entries)
	}

	if w := do(t, mux, http.MethodGet, "/api/v1/ledger?month=October", "", false); w.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d", w.Code)
	}

	if w := do(t, mux, http.MethodDelete, "/api/v1/ledger/t1", "", true); w.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", w.Code)
	}
	if w := do(t, mux, http.MethodDelete, "/api/v1/ledger/t1", "", true); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", w.Code)
	}
}

func TestScanRoute(t *testing.T) {
	mux := newTestMux(t)
	w := do(t, mux, http.MethodPost, "/api/v1/ledger/scan", `{"amount":12.4,"merchant":"Cafe","category":"Dining","date":"2026-10-14","confidence":0.6}`, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if m := decodeMap(t, w); m["sourceScanId"] == nil || m["category"] != "Dining" {
		t.Errorf("entry = %v", m)
	}
}

func TestBudgetProgressRoute(t *testing.T) {
	mux := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/budgets", `{"name":"Groceries","amount":500}`, true)
	do(t, mux, http.MethodPost, "/api/v1/ledger", `{"amount":120,"category":"Groceries - Walmart","date":"2026-10-03"}`, true)
	do(t, mux, http.MethodPost, "/api/v1/ledger", `{"amount":80,"category":"Groceries","date":"2026-10-04"}`, true)

	if w := do(t, mux, http.MethodPost, "/api/v1/budgets", `{"name":"groceries","amount":1}`, true); w.Code != http.StatusConflict {
		t.Errorf("duplicate budget status = %d, want 409", w.Code)
	}

	w := do(t, mux, http.MethodGet, "/api/v1/budgets/progress?month=2026-10", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var summary domain.BudgetSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if len(summary.Budgets) != 1 || !summary.Budgets[0].Spent.Equal(decimal.NewFromInt(80)) {
		t.Errorf("summary = %+v", summary)
	}

	w = do(t, mux, http.MethodGet, "/api/v1/spending?month=2026-10&currency=EUR", "", false)
	if m := decodeMap(t, w); m["currency"] != "EUR" {
		t.Errorf("spending = %v", m)
	}
}

func TestConvertRoute(t *testing.T) {
	mux := newTestMux(t)

	w := do(t, mux, http.MethodGet, "/api/v1/convert?amount=50&from=EUR&to=GBP", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	m := decodeMap(t, w)
	if m["result"] != "42.93" || m["to"] != "GBP" || m["isEstimate"] != false {
		t.Errorf("convert = %v", m)
	}

	if w := do(t, mux, http.MethodGet, "/api/v1/convert?amount=abc&from=EUR&to=GBP", "", false); w.Code != http.StatusBadRequest {
		t.Errorf("bad amount status = %d", w.Code)
	}
	if w := do(t, mux, http.MethodGet, "/api/v1/convert?amount=1&from=ZZZ", "", false); w.Code != http.StatusBadRequest {
		t.Errorf("unknown currency status = %d", w.Code)
	}
}

func TestAssetRoutes(t *testing.T) {
	mux := newTestMux(t)

	if w := do(t, mux, http.MethodPost, "/api/v1/assets", `{"name":"Coins","type":"GOLD"}`, true); w.Code != http.StatusBadRequest {
		t.Errorf("invalid asset status = %d, want 400", w.Code)
	}
	w := do(t, mux, http.MethodPost, "/api/v1/assets", `{"id":"g1","name":"Coins","type":"GOLD","quantity":10,"purity":22}`, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body)
	}

	w = do(t, mux, http.MethodGet, "/api/v1/assets/g1/valuation", "", false)
	var res domain.ValuationResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.CurrentValue.Equal(decimal.RequireFromString("779.17")) || res.Breakdown.Model != domain.ModelMetal {
		t.Errorf("valuation = %+v", res)
	}

	if w := do(t, mux, http.MethodGet, "/api/v1/assets/missing/valuation", "", false); w.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d", w.Code)
	}

	if w := do(t, mux, http.MethodPut, "/api/v1/assets/g1/market-price", `{"price":1000}`, true); w.Code != http.StatusOK {
		t.Errorf("market price status = %d", w.Code)
	}
	w = do(t, mux, http.MethodGet, "/api/v1/net-worth?currency=EUR", "", false)
	var nw domain.NetWorth
	if err := json.Unmarshal(w.Body.Bytes(), &nw); err != nil {
		t.Fatal(err)
	}
	if nw.Currency != "EUR" || !nw.Total.Equal(decimal.NewFromInt(920)) {
		t.Errorf("net worth = %+v", nw)
	}

	if w := do(t, mux, http.MethodGet, "/api/v1/assets?q=coin", "", false); !strings.Contains(w.Body.String(), `"g1"`) {
		t.Errorf("search = %s", w.Body)
	}
}

func TestBackupRoutes(t *testing.T) {
	mux := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/ledger", `{"id":"t1","amount":5,"date":"2026-10-01"}`, true)

	if w := do(t, mux, http.MethodGet, "/api/v1/backup", "", false); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated backup status = %d", w.Code)
	}
	w := do(t, mux, http.MethodGet, "/api/v1/backup", "", true)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"t1"`) {
		t.Fatalf("json backup = %d %s", w.Code, w.Body)
	}
	jsonBackup := w.Body.String()

	w = do(t, mux, http.MethodGet, "/api/v1/backup?format=xlsx", "", true)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "application/vnd.openxmlformats") {
		t.Errorf("xlsx backup = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if w := do(t, mux, http.MethodGet, "/api/v1/backup?format=pdf", "", true); w.Code != http.StatusBadRequest {
		t.Errorf("pdf backup status = %d", w.Code)
	}

	other := newTestMux(t)
	if w := do(t, other, http.MethodPost, "/api/v1/backup", jsonBackup, true); w.Code != http.StatusOK {
		t.Fatalf("restore = %d %s", w.Code, w.Body)
	}
	if w := do(t, other, http.MethodGet, "/api/v1/ledger", "", false); !strings.Contains(w.Body.String(), `"t1"`) {
		t.Errorf("restored ledger = %s", w.Body)
	}
	if w := do(t, other, http.MethodPost, "/api/v1/backup", "not json", true); w.Code != http.StatusBadRequest {
		t.Errorf("bad restore status = %d", w.Code)
	}
}

func TestSalaryRoutes(t *testing.T) {
	mux := newTestMux(t)
	if w := do(t, mux, http.MethodGet, "/api/v1/settings/salary", "", false); w.Code != http.StatusNotFound {
		t.Errorf("unset salary status = %d", w.Code)
	}
	if w := do(t, mux, http.MethodPut, "/api/v1/settings/salary", `4200`, true); w.Code != http.StatusOK {
		t.Errorf("legacy number PUT status = %d, body %s", w.Code, w.Body)
	}
	m := decodeMap(t, do(t, mux, http.MethodGet, "/api/v1/settings/salary", "", false))
	if m["amount"] != float64(4200) || m["currency"] != "USD" {
		t.Errorf("salary = %v", m)
	}
}

func TestMonthlyBudgetRoutes(t *testing.T) {
	mux := newTestMux(t)
	if w := do(t, mux, http.MethodGet, "/api/v1/settings/budget", "", false); w.Code != http.StatusNotFound {
		t.Errorf("unset budget status = %d", w.Code)
	}
	if w := do(t, mux, http.MethodPut, "/api/v1/settings/budget", `{"amount":1500,"currency":"eur"}`, false); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated PUT status = %d", w.Code)
	}
	if w := do(t, mux, http.MethodPut, "/api/v1/settings/budget", `{"amount":-1}`, true); w.Code != http.StatusBadRequest {
		t.Errorf("negative PUT status = %d", w.Code)
	}
	if w := do(t, mux, http.MethodPut, "/api/v1/settings/budget", `{"amount":1500,"currency":"eur"}`, true); w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", w.Code, w.Body)
	}
	m := decodeMap(t, do(t, mux, http.MethodGet, "/api/v1/settings/budget", "", false))
	if m["amount"] != float64(1500) || m["currency"] != "EUR" {
		t.Errorf("monthly budget = %v", m)
	}
	if w := do(t, mux, http.MethodGet, "/api/v1/settings/salary", "", false); w.Code != http.StatusNotFound {
		t.Errorf("salary must stay unset, status = %d", w.Code)
	}
}

func TestLedgerRecurringView(t *testing.T) {
	mux := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/ledger", `{"id":"r1","amount":900,"category":"Rent","date":"2026-10-01","isRecurring":true,"recurringId":"rem-1"}`, true)
	do(t, mux, http.MethodPost, "/api/v1/ledger", `{"id":"t2","amount":12,"category":"Food","date":"2026-10-02"}`, true)

	w := do(t, mux, http.MethodGet, "/api/v1/ledger?recurring=true", "", false)
	var entries []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0]["id"] != "r1" || entries[0]["recurringId"] != "rem-1" {
		t.Errorf("recurring view = %v", entries)
	}
}
