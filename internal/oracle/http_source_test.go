package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPSource_LatestReading(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getPrice" {
			t.Errorf("expected method getPrice, got %s", req.Method)
		}

		if len(req.Params) != 1 || req.Params[0] != testFeed {
			t.Errorf("expected params [%s], got %v", testFeed, req.Params)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"price":       int64(15000000000),
				"decimals":    8,
				"publishTime": int64(1700000000000),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL)
	ctx := context.Background()

	reading, err := source.LatestReading(ctx, testFeed)
	if err != nil {
		t.Fatalf("LatestReading: %v", err)
	}

	if reading.Price != 15000000000 {
		t.Errorf("expected price 15000000000, got %d", reading.Price)
	}

	if reading.Decimals != 8 {
		t.Errorf("expected decimals 8, got %d", reading.Decimals)
	}

	if reading.ObservedAt != 1700000000000 {
		t.Errorf("expected observedAt 1700000000000, got %d", reading.ObservedAt)
	}
}

func TestHTTPSource_UnknownFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  nil,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL)
	ctx := context.Background()

	if _, err := source.LatestReading(ctx, "feed/unknown"); err == nil {
		t.Error("expected error for feed with no reading")
	}
}

func TestHTTPSource_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32602,
				"message": "unknown feed",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, WithMaxRetries(3))
	ctx := context.Background()

	if _, err := source.LatestReading(ctx, testFeed); err == nil {
		t.Fatal("expected RPC error")
	}

	if calls.Load() != 1 {
		t.Errorf("RPC error should not be retried, got %d calls", calls.Load())
	}
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"price":       int64(100000000),
				"decimals":    8,
				"publishTime": int64(1700000000000),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
		WithMaxDelay(50*time.Millisecond),
	)
	ctx := context.Background()

	reading, err := source.LatestReading(ctx, testFeed)
	if err != nil {
		t.Fatalf("LatestReading after retries: %v", err)
	}

	if reading.Price != 100000000 {
		t.Errorf("expected price 100000000, got %d", reading.Price)
	}

	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPSource_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL,
		WithMaxRetries(10),
		WithRetryDelay(time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := source.LatestReading(ctx, testFeed); err == nil {
		t.Error("expected error after context deadline")
	}
}
