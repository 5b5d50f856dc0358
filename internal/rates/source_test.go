package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/USD" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"base":"USD","date":"2026-10-15","rates":{"USD":1,"EUR":0.92,"INR":83.5}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/latest/", time.Millisecond, 1)
	rates, err := src.Fetch(context.Background(), "USD")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !rates["INR"].Equal(decimal.RequireFromString("83.5")) || len(rates) != 3 {
		t.Errorf("rates = %v", rates)
	}
}

func TestHTTPSourceRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Millisecond, 3)
	if _, err := src.Fetch(context.Background(), "USD"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPSourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		calls  int32
	}{
		{"client error is not retried", http.StatusNotFound, `{"error":"unknown base"}`, 1},
		{"server error exhausts retries", http.StatusBadGateway, ``, 3},
		{"empty rates", http.StatusOK, `{"rates":{}}`, 1},
		{"not json", http.StatusOK, `<html>`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src := NewHTTPSource(srv.URL, time.Millisecond, 2)
			if _, err := src.Fetch(context.Background(), "USD"); err == nil {
				t.Fatal("expected error")
			}
			if calls.Load() != tt.calls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.calls)
			}
		})
	}
}
