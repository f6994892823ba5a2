package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pinger struct {
	err error
}

func (p pinger) Ping(ctx context.Context) error {
	return p.err
}

func readyRecorder(s *Server) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	return rec
}

func TestReadyRequiresDatabase(t *testing.T) {
	s := NewServer(Config{ServiceName: "test", DB: pinger{err: errors.New("down")}})
	s.SetReady(true)

	rec := readyRecorder(s)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with failing database, got %d", rec.Code)
	}
}

func TestReadyToleratesDegradedCache(t *testing.T) {
	s := NewServer(Config{
		ServiceName: "test",
		DB:          pinger{},
		Cache:       pinger{err: errors.New("connection refused")},
	})
	s.SetReady(true)

	rec := readyRecorder(s)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with degraded cache, got %d", rec.Code)
	}

	var body ReadyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Checks["cache"] == "ok" {
		t.Fatal("expected cache check to report degradation")
	}
	if body.Checks["database"] != "ok" {
		t.Fatalf("expected database ok, got %q", body.Checks["database"])
	}
}

func TestReadyNotReadyUntilMarked(t *testing.T) {
	s := NewServer(Config{ServiceName: "test"})

	if rec := readyRecorder(s); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before SetReady, got %d", rec.Code)
	}

	s.SetReady(true)
	if rec := readyRecorder(s); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after SetReady, got %d", rec.Code)
	}
}
