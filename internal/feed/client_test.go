package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Trades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/trades" {
			t.Errorf("expected path /v1/trades, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("mint"); got != "mint-1" {
			t.Errorf("expected mint=mint-1, got %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("expected limit=50, got %s", got)
		}

		resp := []map[string]interface{}{
			{
				"signature":     "sig-1",
				"mint":          "mint-1",
				"wallet":        "wallet-1",
				"side":          "buy",
				"amount_native": 0.5,
				"amount_usd":    75.0,
				"timestamp":     int64(1700000000000),
			},
			{
				"signature":     "sig-2",
				"mint":          "mint-1",
				"wallet":        "wallet-2",
				"side":          "sell",
				"amount_native": 0.2,
				"amount_usd":    30.0,
				"timestamp":     int64(1700000001000),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	trades, err := client.Trades(context.Background(), "mint-1", 50)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TxSignature != "sig-1" {
		t.Errorf("expected sig-1, got %s", trades[0].TxSignature)
	}
	if trades[0].AmountUSD != 75.0 {
		t.Errorf("expected 75.0 USD, got %v", trades[0].AmountUSD)
	}
	if trades[1].Side != "sell" {
		t.Errorf("expected sell side, got %s", trades[1].Side)
	}
	if trades[1].Timestamp != 1700000001000 {
		t.Errorf("expected ms timestamp, got %d", trades[1].Timestamp)
	}
}

func TestClient_Progress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/curve/progress" {
			t.Errorf("expected path /v1/curve/progress, got %s", r.URL.Path)
		}
		resp := map[string]interface{}{"mint": "mint-1", "progress": 0.87}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	progress, err := client.Progress(context.Background(), "mint-1")
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress != 0.87 {
		t.Errorf("expected progress 0.87, got %v", progress)
	}
}

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"mint": "mint-1", "progress": 1.0})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryDelay(time.Millisecond))
	progress, err := client.Progress(context.Background(), "mint-1")
	if err != nil {
		t.Fatalf("Progress after retries: %v", err)
	}
	if progress != 1.0 {
		t.Errorf("expected progress 1.0, got %v", progress)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClient_ExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	if _, err := client.Progress(context.Background(), "mint-1"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, WithRetryDelay(time.Second))
	if _, err := client.Progress(ctx, "mint-1"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
