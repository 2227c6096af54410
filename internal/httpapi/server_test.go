package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"doorlatch/internal/httpapi"
	"doorlatch/internal/scan"
	"doorlatch/internal/service"
	"doorlatch/internal/store"
	"doorlatch/internal/store/memory"
)

// newTestServer wires up the portal with in-memory stores and returns an
// httptest.Server plus the pieces tests poke at directly.
func newTestServer(t *testing.T, registry store.Registry) (*httptest.Server, *scan.LastUID, *memory.AccessEventStore) {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	last := &scan.LastUID{}
	events := memory.NewAccessEventStore()
	registration := service.NewRegistrationService(registry, last, logger)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         ":0",
		Registration: registration,
		Events:       events,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, last, events
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestPortal_ServesEnrollmentPage(t *testing.T) {
	ts, _, _ := newTestServer(t, memory.NewRegistry())

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "/getuid") || !strings.Contains(body, "/register") {
		t.Error("expected the page to reference the getuid poll and register form")
	}
}

func TestGetUID_EmptyThenLastObserved(t *testing.T) {
	ts, last, _ := newTestServer(t, memory.NewRegistry())

	resp, err := http.Get(ts.URL + "/getuid")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "" {
		t.Errorf("expected empty body before any scan, got %q", body)
	}

	last.Set("04:A1:B2:C3")

	resp, err = http.Get(ts.URL + "/getuid")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if body := readBody(t, resp); body != "04:A1:B2:C3" {
		t.Errorf("expected last observed UID, got %q", body)
	}
}

func TestRegister_Success(t *testing.T) {
	registry := memory.NewRegistry()
	ts, _, _ := newTestServer(t, registry)

	resp, err := http.PostForm(ts.URL+"/register", url.Values{
		"uid":  {"04:a1:b2:c3"},
		"name": {"Alice"},
		"role": {"a"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "UID registered successfully!" {
		t.Errorf("unexpected body %q", body)
	}

	rec, found, _ := registry.Lookup(context.Background(), "04:A1:B2:C3")
	if !found {
		t.Fatal("expected registered record to be found")
	}
	if rec.Name != "Alice" || rec.Role != "A" {
		t.Errorf("expected Alice/A, got %q/%q", rec.Name, rec.Role)
	}
}

func TestRegister_EmptyUID_400(t *testing.T) {
	ts, _, _ := newTestServer(t, memory.NewRegistry())

	resp, err := http.PostForm(ts.URL+"/register", url.Values{
		"uid":  {""},
		"name": {"Alice"},
		"role": {"A"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "No UID scanned!" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestRegister_Duplicate_Conflict(t *testing.T) {
	registry := memory.NewRegistry(
		store.CardholderRecord{UID: "04:A1:B2:C3", Name: "Alice", Role: "A"},
	)
	ts, _, _ := newTestServer(t, registry)

	resp, err := http.PostForm(ts.URL+"/register", url.Values{
		"uid":  {"04:A1:B2:C3"},
		"name": {"Bob"},
		"role": {"U"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "UID already exists" {
		t.Errorf("unexpected body %q", body)
	}
	if registry.Len() != 1 {
		t.Errorf("conflict must not add a record, registry has %d", registry.Len())
	}
}

// brokenRegistry fails every write.
type brokenRegistry struct{}

func (brokenRegistry) Lookup(context.Context, string) (store.CardholderRecord, bool, error) {
	return store.CardholderRecord{}, false, nil
}
func (brokenRegistry) Append(context.Context, store.CardholderRecord) error {
	return errors.New("disk full")
}
func (brokenRegistry) AppendUnique(context.Context, store.CardholderRecord) error {
	return errors.New("disk full")
}

func TestRegister_StorageFailure_500(t *testing.T) {
	ts, _, _ := newTestServer(t, brokenRegistry{})

	resp, err := http.PostForm(ts.URL+"/register", url.Values{
		"uid":  {"04:A1:B2:C3"},
		"name": {"Alice"},
		"role": {"A"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "Failed to save UID!" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestEvents_ReturnsRecentDecisions(t *testing.T) {
	ts, _, events := newTestServer(t, memory.NewRegistry())

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	_ = events.RecordEvent(context.Background(), store.AccessEventRecord{
		UID: "FF:FF:FF:FF", Granted: false, Reason: "unknown_uid", DecidedAt: now,
	})
	_ = events.RecordEvent(context.Background(), store.AccessEventRecord{
		UID: "04:A1:B2:C3", HolderName: "Alice", Granted: true, Reason: "granted", DecidedAt: now.Add(time.Minute),
	})

	resp, err := http.Get(ts.URL + "/events?limit=10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out []struct {
		UID        string `json:"uid"`
		HolderName string `json:"holder_name"`
		Granted    bool   `json:"granted"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 events, got %d", len(out))
	}
	if out[0].UID != "04:A1:B2:C3" || !out[0].Granted || out[0].HolderName != "Alice" {
		t.Errorf("expected newest granted event first, got %+v", out[0])
	}
	if out[1].UID != "FF:FF:FF:FF" || out[1].Granted {
		t.Errorf("expected older denied event second, got %+v", out[1])
	}
}

func TestEvents_BadLimit_400(t *testing.T) {
	ts, _, _ := newTestServer(t, memory.NewRegistry())

	resp, err := http.Get(ts.URL + "/events?limit=zero")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t, memory.NewRegistry())

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "ok" {
		t.Errorf("expected ok, got %q", body)
	}
}
