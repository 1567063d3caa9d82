package morpho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientQuery_DecodesData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !strings.Contains(req.Query, "query Probe") {
			t.Errorf("query not forwarded: %q", req.Query)
		}
		if req.Variables["chainId"] != float64(1) {
			t.Errorf("variables not forwarded: %v", req.Variables)
		}
		w.Write([]byte(`{"data":{"value":42}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var out struct {
		Value int `json:"value"`
	}
	err := client.Query(context.Background(), "query Probe { value }", map[string]any{"chainId": 1}, &out)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("value = %d, want 42", out.Value)
	}
}

func TestClientQuery_JoinsGraphQLErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"errors":[{"message":"first"},{"message":"second"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))

	err := client.Query(context.Background(), "query { x }", nil, nil)
	if err == nil || err.Error() != "first; second" {
		t.Fatalf("err = %v, want joined messages", err)
	}
	// Query-level errors are final; retrying cannot help.
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClientQuery_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).Query(context.Background(), "query { x }", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "empty data") {
		t.Fatalf("err = %v, want empty data error", err)
	}
}

func TestClientQuery_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewClient(server.URL).Query(context.Background(), "query { x }", nil, nil)
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClientQuery_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))

	if err := client.Query(context.Background(), "query { x }", nil, nil); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}
