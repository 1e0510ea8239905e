package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinRecovery_ReturnsEnvelope(t *testing.T) {
	router := gin.New()
	router.Use(GinLogger(), GinRecovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("expected error envelope, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("panic value must not leak to the client")
	}
}

func TestGinLogger_AssignsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(GinLogger())

	var seen string
	router.GET("/projects/:id", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/projects/42", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if seen == "" {
		t.Fatal("handler should see a request id")
	}
	if got := w.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("%s = %q, expected %q", RequestIDHeader, got, seen)
	}
}

func TestGinLogger_KeepsClientRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"short id kept", "abc-123", true},
		{"oversized id replaced", strings.Repeat("x", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(GinLogger())
			router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ok", nil)
			req.Header.Set(RequestIDHeader, tt.incoming)
			router.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if (got == tt.incoming) != tt.keep {
				t.Errorf("%s = %q, keep = %v", RequestIDHeader, got, tt.keep)
			}
			if got == "" {
				t.Error("response should always carry a request id")
			}
		})
	}
}

func TestRoute(t *testing.T) {
	router := gin.New()
	var matched string
	router.GET("/api/projects/:id", func(c *gin.Context) { matched = route(c) })
	router.NoRoute(func(c *gin.Context) { matched = route(c) })

	for path, want := range map[string]string{
		"/api/projects/7": "/api/projects/:id",
		"/nowhere":        "unmatched",
	} {
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
		if matched != want {
			t.Errorf("route(%s) = %q, expected %q", path, matched, want)
		}
	}
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	Init("not-a-level")
	defer Init("info")

	if got := log.GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("level = %v, expected info", got)
	}
}
