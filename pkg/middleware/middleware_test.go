package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/JaimeStill/mimic/pkg/middleware"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "handler"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestNewSeededAndNil(t *testing.T) {
	var calls int
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			next.ServeHTTP(w, r)
		})
	}

	mw := middleware.New(count)
	mw.Use(nil)
	mw.Use(count)
	if mw.Len() != 2 {
		t.Errorf("Len() = %d, want 2", mw.Len())
	}

	mw.Apply(http.HandlerFunc(ok)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestAllowsOrigin(t *testing.T) {
	tests := []struct {
		name   string
		cfg    middleware.CORSConfig
		origin string
		want   bool
	}{
		{"listed", middleware.CORSConfig{Enabled: true, Origins: []string{"http://a.test"}}, "http://a.test", true},
		{"unlisted", middleware.CORSConfig{Enabled: true, Origins: []string{"http://a.test"}}, "http://b.test", false},
		{"wildcard", middleware.CORSConfig{Enabled: true, Origins: []string{"*"}}, "http://b.test", true},
		{"disabled", middleware.CORSConfig{Origins: []string{"*"}}, "http://b.test", false},
		{"empty origin", middleware.CORSConfig{Enabled: true, Origins: []string{"*"}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.AllowsOrigin(tt.origin); got != tt.want {
				t.Errorf("AllowsOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"http://a.test"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	}

	var called bool
	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
		wantCalled bool
	}{
		{"allowed", "GET", "http://a.test", "http://a.test", http.StatusOK, true},
		{"denied", "GET", "http://b.test", "", http.StatusOK, true},
		{"preflight", "OPTIONS", "http://a.test", "http://a.test", http.StatusNoContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin == "" {
				return
			}
			h := rec.Header()
			if h.Get("Access-Control-Allow-Methods") != "GET, POST" {
				t.Errorf("allow-methods = %q", h.Get("Access-Control-Allow-Methods"))
			}
			if h.Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("expected allow-credentials")
			}
			if h.Get("Access-Control-Max-Age") != "600" {
				t.Errorf("max-age = %q", h.Get("Access-Control-Max-Age"))
			}
			if h.Get("Vary") != "Origin" {
				t.Errorf("vary = %q", h.Get("Vary"))
			}
		})
	}
}

func TestCORSDisabled(t *testing.T) {
	handler := middleware.CORS(&middleware.CORSConfig{Origins: []string{"*"}})(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://a.test")
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("CORS headers set while disabled")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want request passed through", rec.Code)
	}
}

func TestCORSFinalize(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("TEST_CORS_MAX_AGE", "not-a-number")

	var cfg middleware.CORSConfig
	err := cfg.Finalize(&middleware.CORSEnv{
		Enabled: "TEST_CORS_ENABLED",
		Origins: "TEST_CORS_ORIGINS",
		MaxAge:  "TEST_CORS_MAX_AGE",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Enabled {
		t.Error("expected enabled from env")
	}
	if want := []string{"http://a.test", "http://b.test"}; !slices.Equal(cfg.Origins, want) {
		t.Errorf("origins = %v, want %v", cfg.Origins, want)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max age = %d, want default kept for invalid env", cfg.MaxAge)
	}
	if len(cfg.AllowedMethods) == 0 || len(cfg.AllowedHeaders) == 0 {
		t.Error("expected default methods and headers")
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusCreated, "level=INFO"},
		{"server error", http.StatusServiceUnavailable, "level=WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.WriteHeader(http.StatusTeapot)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/models?limit=2", nil))

			out := buf.String()
			if !strings.Contains(out, "status="+strconv.Itoa(tt.status)) {
				t.Errorf("log = %q, want status %d", out, tt.status)
			}
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("log = %q, want %s", out, tt.wantLevel)
			}
			if !strings.Contains(out, "uri=\"/models?limit=2\"") && !strings.Contains(out, "uri=/models?limit=2") {
				t.Errorf("log = %q, want request uri", out)
			}
		})
	}
}

func TestLoggerHijack(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	var hijackErr error
	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("wrapped writer does not expose Hijack")
		}
		_, _, hijackErr = h.Hijack()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if hijackErr == nil {
		t.Error("expected error when the underlying writer cannot hijack")
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic=boom") {
		t.Errorf("log = %q, want panic value", buf.String())
	}
}
