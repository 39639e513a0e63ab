package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/agristat/internal/errors"
	"github.com/stwalsh4118/agristat/internal/logger"
	"github.com/stwalsh4118/agristat/internal/models"
	"github.com/stwalsh4118/agristat/internal/store"
)

// MockPinger is a mock implementation of Pinger for testing.
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// failingProvider is a data provider whose load always fails.
type failingProvider struct{}

func (failingProvider) Name() string { return "file:csv" }

func (failingProvider) Load(context.Context) (*models.Dataset, error) {
	return nil, errors.New("open data/farmers.csv: no such file or directory")
}

// setupTestRouter creates a bare test Gin router.
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func loadedStore() *store.Store {
	return store.FromDataset("synthetic", &models.Dataset{
		Farmers: []models.Farmer{{ID: 1}, {ID: 2}},
		Crops:   []models.Crop{{ID: 1}},
	})
}

func serveHealth(t *testing.T, handler *HealthHandler, path string) *httptest.ResponseRecorder {
	t.Helper()

	router := setupTestRouter()
	router.GET("/health", handler.Health)
	router.GET("/health/ready", handler.Ready)
	router.GET("/api/info", handler.Info)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(loadedStore(), nil, "test")

	w := serveHealth(t, handler, "/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, HealthResponse{Status: "healthy"}, response)
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("ready without database", func(t *testing.T) {
		handler := NewHealthHandler(loadedStore(), nil, "test")

		w := serveHealth(t, handler, "/health/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","source":"synthetic"}`, w.Body.String())
	})

	t.Run("ready with database connected", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		handler := NewHealthHandler(loadedStore(), db, "test")

		w := serveHealth(t, handler, "/health/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","source":"synthetic","database":"connected"}`, w.Body.String())
		db.AssertExpectations(t)
	})

	t.Run("database ping fails", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(errors.New("connection refused"))
		handler := NewHealthHandler(loadedStore(), db, "test")

		w := serveHealth(t, handler, "/health/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response apierrors.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, apierrors.ErrDatabaseConnection, response.Error.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("data failed to load", func(t *testing.T) {
		st := store.New(context.Background(), failingProvider{}, logger.New("test"))
		db := new(MockPinger)
		handler := NewHealthHandler(st, db, "test")

		w := serveHealth(t, handler, "/health/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response apierrors.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, apierrors.ErrServiceUnavailable, response.Error.Code)
		assert.Contains(t, response.Error.Message, "file:csv")
		db.AssertNotCalled(t, "Ping", mock.Anything)
	})
}

func TestHealthHandler_Info(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		startTime time.Time
		uptime    string
	}{
		{
			name:      "returns API info with development environment",
			env:       "development",
			startTime: time.Now().Add(-2 * time.Hour),
			uptime:    "2h 0m 0s",
		},
		{
			name:      "returns API info with production environment",
			env:       "production",
			startTime: time.Now().Add(-24 * time.Hour),
			uptime:    "1d 0h 0m 0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(loadedStore(), nil, tt.env)
			handler.startTime = tt.startTime

			w := serveHealth(t, handler, "/api/info")

			assert.Equal(t, http.StatusOK, w.Code)

			var response InfoResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

			assert.Equal(t, APIVersion, response.Version)
			assert.Equal(t, tt.env, response.Environment)
			assert.Equal(t, tt.uptime, response.Uptime)
			assert.Equal(t, "synthetic", response.Source)
			assert.Equal(t, store.Counts{Farmers: 2, Crops: 1}, response.Records)
		})
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "formats seconds only",
			duration: 45 * time.Second,
			expected: "0h 0m 45s",
		},
		{
			name:     "formats minutes and seconds",
			duration: 5*time.Minute + 30*time.Second,
			expected: "0h 5m 30s",
		},
		{
			name:     "formats hours, minutes and seconds",
			duration: 2*time.Hour + 15*time.Minute + 45*time.Second,
			expected: "2h 15m 45s",
		},
		{
			name:     "formats days, hours, minutes and seconds",
			duration: 3*24*time.Hour + 5*time.Hour + 30*time.Minute + 15*time.Second,
			expected: "3d 5h 30m 15s",
		},
		{
			name:     "formats zero duration",
			duration: 0,
			expected: "0h 0m 0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}

func TestInfoResponse_JSON(t *testing.T) {
	response := InfoResponse{
		Version:     "0.1.0",
		Environment: "test",
		Uptime:      "1h 30m 45s",
		Source:      "postgres",
		Records:     store.Counts{Farmers: 1, Crops: 2, Livestock: 3, Aquaculture: 4},
	}

	data, err := json.Marshal(response)
	require.NoError(t, err)

	expected := `{"version":"0.1.0","environment":"test","uptime":"1h 30m 45s","source":"postgres",
		"records":{"farmers":1,"crops":2,"livestock":3,"aquaculture":4}}`
	assert.JSONEq(t, expected, string(data))
}

func BenchmarkHealthHandler_Health(b *testing.B) {
	handler := NewHealthHandler(loadedStore(), nil, "test")

	router := setupTestRouter()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// Example of how the handler would be used
func ExampleHealthHandler_Health() {
	handler := NewHealthHandler(store.FromDataset("synthetic", nil), nil, "development")

	router := gin.New()
	router.GET("/health", handler.Health)

	fmt.Println("Health endpoint registered at /health")
	// Output: Health endpoint registered at /health
}
