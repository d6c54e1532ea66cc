package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"token-launchpad/internal/observability"
)

func TestClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/market" {
			t.Errorf("expected path /v1/market, got %s", r.URL.Path)
		}
		resp := map[string]interface{}{
			"mint":           "mint-1",
			"price_usd":      0.00042,
			"market_cap_usd": 420000.0,
			"liquidity_usd":  85000.0,
			"holder_count":   1337,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	data, err := client.Lookup(context.Background(), "mint-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if data.MarketCapUSD != 420000.0 {
		t.Errorf("expected market cap 420000, got %v", data.MarketCapUSD)
	}
	if data.HolderCount != 1337 {
		t.Errorf("expected 1337 holders, got %d", data.HolderCount)
	}
}

func TestClient_SolPriceUSD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/price/sol" {
			t.Errorf("expected path /v1/price/sol, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"price_usd": 212.5})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	price, err := client.SolPriceUSD(context.Background())
	if err != nil {
		t.Fatalf("SolPriceUSD: %v", err)
	}
	if price != 212.5 {
		t.Errorf("expected 212.5, got %v", price)
	}
}

func TestClient_SolPriceRejectsNonPositive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"price_usd": 0.0})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.SolPriceUSD(context.Background()); err == nil {
		t.Fatal("expected error for zero price")
	}
}

func TestCached_ServesFromCacheWithinTTL(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"mint": "mint-1", "market_cap_usd": 100000.0,
		})
	}))
	defer server.Close()

	cached := NewCached(NewClient(server.URL), time.Minute, nil, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		data := cached.Lookup(ctx, "mint-1")
		if data == nil || data.MarketCapUSD != 100000.0 {
			t.Fatalf("lookup %d returned %+v", i, data)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}
}

func TestCached_RecordsOnlyUpstreamLatency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"mint": "mint-1", "market_cap_usd": 100000.0,
		})
	}))
	defer server.Close()

	m := observability.NewMetrics("test_market")
	cached := NewCached(NewClient(server.URL), time.Minute, m, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if data := cached.Lookup(ctx, "mint-1"); data == nil {
			t.Fatalf("lookup %d returned nil", i)
		}
	}

	var pb dto.Metric
	if err := m.MarketLookupLatency.Write(&pb); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := pb.Histogram.GetSampleCount(); got != 1 {
		t.Errorf("expected 1 latency sample for the single upstream refresh, got %d", got)
	}
}

func TestCached_NilWhenUpstreamDownAndNoSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cached := NewCached(NewClient(server.URL), time.Minute, nil, nil)
	if data := cached.Lookup(context.Background(), "mint-1"); data != nil {
		t.Errorf("expected nil without any snapshot, got %+v", data)
	}
}

func TestCached_FallsBackToStaleSnapshot(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"mint": "mint-1", "market_cap_usd": 100000.0,
		})
	}))
	defer server.Close()

	cached := NewCached(NewClient(server.URL), time.Nanosecond, nil, nil)
	ctx := context.Background()

	if data := cached.Lookup(ctx, "mint-1"); data == nil {
		t.Fatal("expected initial snapshot")
	}

	fail.Store(true)
	time.Sleep(time.Millisecond)

	data := cached.Lookup(ctx, "mint-1")
	if data == nil {
		t.Fatal("expected stale snapshot while upstream is down")
	}
	if data.MarketCapUSD != 100000.0 {
		t.Errorf("stale snapshot corrupted: %+v", data)
	}
}

func TestClient_LookupUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("no data for %s", r.URL.Query().Get("mint")), http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Lookup(context.Background(), "mint-x"); err == nil {
		t.Fatal("expected error for 404")
	}
}
