package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/voicescribe/component"
)

func newTestServer(t *testing.T, components []component.Health) *Server {
	t.Helper()
	s := New(Config{Host: "127.0.0.1"}, nil)
	s.ApplyDefaults("voicescribe", func(context.Context) []component.Health { return components })
	return s
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s: response is not JSON: %q", path, rr.Body.String())
	}
	return rr, body
}

func TestEndpoints(t *testing.T) {
	healthy := []component.Health{{Name: "storage", Status: component.StatusHealthy}}
	degraded := []component.Health{{Name: "telegram-poller", Status: component.StatusDegraded}}
	down := []component.Health{{Name: "storage", Status: component.StatusUnhealthy}}

	tests := []struct {
		name       string
		components []component.Health
		path       string
		wantCode   int
		wantStatus string
	}{
		{"health ok", healthy, "/health", http.StatusOK, "up"},
		{"health degraded", degraded, "/health", http.StatusOK, "degraded"},
		{"health down", down, "/health", http.StatusServiceUnavailable, "down"},
		{"alive", down, "/alive", http.StatusOK, "alive"},
		{"ready", degraded, "/ready", http.StatusOK, "ready"},
		{"not ready", down, "/ready", http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.components)
			rr, body := get(t, s.Handler(), tt.path)
			if rr.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rr.Code, tt.wantCode)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", body["status"], tt.wantStatus)
			}
			if rr.Header().Get("X-Request-Id") == "" {
				t.Error("missing X-Request-Id")
			}
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rr, body := get(t, s.Handler(), "/version")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	if body["version"] == "" || body["go_version"] == "" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestServer_StartStop(t *testing.T) {
	s := New(Config{Host: "127.0.0.1"}, nil)
	s.httpServer.Addr = "127.0.0.1:0"
	s.ApplyDefaults("voicescribe", nil)
	c := NewComponent(s)

	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("Health before start = %+v", h)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/alive")
	if err != nil {
		t.Fatalf("GET /alive: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("code = %d", resp.StatusCode)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("Health after start = %+v", h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}
