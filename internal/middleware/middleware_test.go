package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/agristat/internal/logger"
)

func init() {
	// Set Gin to test mode to reduce noise in tests
	gin.SetMode(gin.TestMode)
}

// captureLogger returns a debug-level logger writing JSON lines to a buffer.
func captureLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.FromZerolog(zerolog.New(&buf).Level(zerolog.DebugLevel)), &buf
}

// entries decodes every JSON log line in buf.
func entries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var out []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		out = append(out, entry)
	}
	return out
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name      string
		inbound   string
		expectNew bool
	}{
		{name: "generates new request ID", inbound: "", expectNew: true},
		{name: "reuses upstream request ID", inbound: "upstream-123", expectNew: false},
		{name: "replaces oversized upstream request ID", inbound: strings.Repeat("x", maxRequestIDLength+1), expectNew: true},
		{name: "keeps request ID at the length limit", inbound: strings.Repeat("y", maxRequestIDLength), expectNew: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID())
			router.GET("/api/farmers", func(c *gin.Context) {
				c.String(http.StatusOK, GetRequestID(c))
			})

			headers := map[string]string{}
			if tt.inbound != "" {
				headers[RequestIDHeader] = tt.inbound
			}
			w := serve(router, http.MethodGet, "/api/farmers", headers)

			id := w.Body.String()
			assert.Equal(t, id, w.Header().Get(RequestIDHeader))
			if tt.expectNew {
				_, err := uuid.Parse(id)
				assert.NoError(t, err, "expected a generated UUID, got %q", id)
			} else {
				assert.Equal(t, tt.inbound, id)
			}
		})
	}

	t.Run("GetRequestID returns empty string if not set", func(t *testing.T) {
		assert.Empty(t, GetRequestID(&gin.Context{}))
	})
}

func TestCORS(t *testing.T) {
	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}

	tests := []struct {
		name        string
		method      string
		origin      string
		status      int
		allowOrigin string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://localhost:5173", status: http.StatusOK, allowOrigin: "http://localhost:5173"},
		{name: "disallowed origin", method: http.MethodGet, origin: "http://evil.com", status: http.StatusForbidden},
		{name: "preflight from allowed origin", method: http.MethodOptions, origin: "http://localhost:3000", status: http.StatusNoContent, allowOrigin: "http://localhost:3000"},
		{name: "preflight from disallowed origin", method: http.MethodOptions, origin: "http://evil.com", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(allowedOrigins))
			router.GET("/api/summary", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			headers := map[string]string{"Origin": tt.origin}
			if tt.method == http.MethodOptions {
				headers["Access-Control-Request-Method"] = http.MethodPost
			}
			w := serve(router, tt.method, "/api/summary", headers)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.allowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	t.Run("exposes request ID header", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS(allowedOrigins))
		router.GET("/api/summary", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		w := serve(router, http.MethodGet, "/api/summary", map[string]string{"Origin": "http://localhost:3000"})

		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")), strings.ToLower(RequestIDHeader))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		status  int
		level   string
		message string
	}{
		{name: "api request", path: "/api/farmers?county=Nairobi", status: http.StatusOK, level: "info", message: "Request completed"},
		{name: "health request", path: "/health", status: http.StatusOK, level: "info", message: "Request completed"},
		{name: "static asset", path: "/assets/app.js", status: http.StatusOK, level: "debug", message: "Static asset served"},
		{name: "client error", path: "/api/options/poultry", status: http.StatusNotFound, level: "warn", message: "Request completed with client error"},
		{name: "server error", path: "/api/crops", status: http.StatusInternalServerError, level: "error", message: "Request completed with server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := captureLogger()
			router := gin.New()
			router.Use(RequestID())
			router.Use(Logger(log))
			router.NoRoute(func(c *gin.Context) {
				require.NotNil(t, GetLogger(c), "expected logger in context")
				c.String(tt.status, "body")
			})

			serve(router, http.MethodGet, tt.path, map[string]string{RequestIDHeader: "req-1"})

			logged := entries(t, buf)
			require.Len(t, logged, 1)
			entry := logged[0]
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.message, entry["message"])
			assert.Equal(t, "req-1", entry["request_id"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, float64(len("body")), entry["bytes"])
			assert.Equal(t, strings.SplitN(tt.path, "?", 2)[0], entry["path"])
		})
	}

	t.Run("GetLogger returns nil if not set", func(t *testing.T) {
		assert.Nil(t, GetLogger(&gin.Context{}))
	})
}

func TestIsAssetPath(t *testing.T) {
	tests := map[string]bool{
		"/":              true,
		"/assets/app.js": true,
		"/dashboard":     true,
		"/api/farmers":   false,
		"/api/info":      false,
		"/health/ready":  false,
	}

	for path, expected := range tests {
		assert.Equal(t, expected, isAssetPath(path), path)
	}
}

func TestRecovery(t *testing.T) {
	t.Run("recovers from panic and returns 500 envelope", func(t *testing.T) {
		log, buf := captureLogger()
		router := gin.New()
		router.Use(RequestID())
		router.Use(Recovery(log))
		router.GET("/api/summary", func(c *gin.Context) {
			panic("test panic")
		})

		w := serve(router, http.MethodGet, "/api/summary", map[string]string{RequestIDHeader: "req-panic"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":{"code":"INTERNAL_SERVER_ERROR","message":"An unexpected error occurred","request_id":"req-panic"}}`, w.Body.String())

		logged := entries(t, buf)
		require.Len(t, logged, 1)
		assert.Equal(t, "Panic recovered", logged[0]["message"])
		assert.Contains(t, logged[0]["error"], "test panic")
	})

	t.Run("does not interfere with normal requests", func(t *testing.T) {
		log, buf := captureLogger()
		router := gin.New()
		router.Use(Recovery(log))
		router.GET("/health", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		w := serve(router, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
		assert.Zero(t, buf.Len())
	})
}

// TestMiddlewareStack checks the middleware in the order the server installs them.
func TestMiddlewareStack(t *testing.T) {
	log, _ := captureLogger()

	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(log))
	router.Use(Recovery(log))
	router.Use(CORS([]string{"http://localhost:3000"}))
	router.GET("/api/farmers", func(c *gin.Context) {
		assert.NotEmpty(t, GetRequestID(c))
		assert.NotNil(t, GetLogger(c))
		c.JSON(http.StatusOK, []int{})
	})

	w := serve(router, http.MethodGet, "/api/farmers", map[string]string{"Origin": "http://localhost:3000"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
