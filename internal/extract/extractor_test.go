package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lekaf974/qc-bike-path/internal/config"
)

const samplePayload = `{
	"success": true,
	"result": {
		"resource_id": "abc-123",
		"records": [
			{"id": "piste-001", "nom": "Piste des Berges", "latitude": 46.8, "longitude": -71.2}
		],
		"total": 1
	}
}`

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.ResourceID = "abc-123"
	cfg.API.Timeout = 5 * time.Second
	cfg.API.RetryAttempts = 2
	cfg.API.RateLimit = 0 // unthrottled in tests
	cfg.Cache.Enabled = false
	return cfg
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("resource_id"); got != "abc-123" {
			t.Errorf("unexpected resource_id: %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("unexpected limit: %s", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected accept header: %s", got)
		}
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	payload, err := client.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !payload.Success {
		t.Error("expected success flag")
	}
	if len(payload.Result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(payload.Result.Records))
	}
	if payload.Result.Records[0]["nom"] != "Piste des Berges" {
		t.Errorf("unexpected record: %v", payload.Result.Records[0])
	}
	if payload.Result.Total != 1 {
		t.Errorf("expected total 1, got %d", payload.Result.Total)
	}
}

func TestFetch_NoLimitOmitsParameter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("limit") {
			t.Errorf("expected no limit parameter, got %s", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	if _, err := client.Fetch(context.Background(), 0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestFetch_RetriesOnServerError(t *testing.T) {
	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	payload, err := client.Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if len(payload.Result.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(payload.Result.Records))
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_ClientErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	if _, err := client.Fetch(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected a single attempt for a 404, got %d", attempts.Load())
	}
}

func TestFetch_ExhaustedRetriesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.API.RetryAttempts = 1

	client := NewClient(cfg, zerolog.Nop())

	if _, err := client.Fetch(context.Background(), 0); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestFetch_MissingResourceIDFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.API.ResourceID = ""

	client := NewClient(cfg, zerolog.Nop())

	_, err := client.Fetch(context.Background(), 0)
	if !errors.Is(err, ErrResourceIDMissing) {
		t.Fatalf("expected ErrResourceIDMissing, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no network call, got %d", hits.Load())
	}
}

func TestFetch_MissingRecordsIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": {"total": 0}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	if _, err := client.Fetch(context.Background(), 0); err == nil {
		t.Fatal("expected error for response without records")
	}
}

func TestFetch_EmptyRecordsIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": {"records": [], "total": 0}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	payload, err := client.Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("expected no error for an empty page, got %v", err)
	}
	if len(payload.Result.Records) != 0 {
		t.Errorf("expected 0 records, got %d", len(payload.Result.Records))
	}
}

func TestFetch_CacheHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute

	client := NewClient(cfg, zerolog.Nop())

	for i := 0; i < 3; i++ {
		payload, err := client.Fetch(context.Background(), 5)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(payload.Result.Records) != 1 {
			t.Fatalf("fetch %d: expected 1 record, got %d", i, len(payload.Result.Records))
		}
	}

	if hits.Load() != 1 {
		t.Errorf("expected a single upstream hit, got %d", hits.Load())
	}
}

func TestFetch_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Fetch(ctx, 0); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
