package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/agristat/internal/logger"
	"github.com/stwalsh4118/agristat/internal/middleware"
)

func init() {
	// Set Gin to test mode to suppress logs during tests
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with a request-scoped logger
// and request ID, the way the middleware stack leaves it.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/farmers/filter", nil)

	c.Set(middleware.RequestIDKey, "test-request-id")
	c.Set("logger", logger.New("test").WithRequestID("test-request-id"))

	return c, w
}

// parseErrorResponse parses the JSON response into an ErrorResponse struct.
func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &response), "Failed to parse error response JSON")
	return response
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *gin.Context)
		status     int
		code       string
		message    string
		hasDetails bool
	}{
		{
			name:    "not found",
			call:    func(c *gin.Context) { NotFound(c, "Route not found") },
			status:  http.StatusNotFound,
			code:    ErrNotFound,
			message: "Route not found",
		},
		{
			name:    "bad request without details",
			call:    func(c *gin.Context) { BadRequest(c, "Request body must be a JSON object", nil) },
			status:  http.StatusBadRequest,
			code:    ErrBadRequest,
			message: "Request body must be a JSON object",
		},
		{
			name: "bad request with details",
			call: func(c *gin.Context) {
				BadRequest(c, "Invalid filter value", map[string]interface{}{"field": "county"})
			},
			status:     http.StatusBadRequest,
			code:       ErrBadRequest,
			message:    "Invalid filter value",
			hasDetails: true,
		},
		{
			name: "internal server error",
			call: func(c *gin.Context) {
				InternalServerError(c, "An unexpected error occurred", errors.New("boom"))
			},
			status:  http.StatusInternalServerError,
			code:    ErrInternalServer,
			message: "An unexpected error occurred",
		},
		{
			name: "service unavailable",
			call: func(c *gin.Context) {
				ServiceUnavailable(c, ErrServiceUnavailable, "Data failed to load", errors.New("no such file"))
			},
			status:  http.StatusServiceUnavailable,
			code:    ErrServiceUnavailable,
			message: "Data failed to load",
		},
		{
			name: "database unavailable",
			call: func(c *gin.Context) {
				ServiceUnavailable(c, ErrDatabaseConnection, "Database connection failed", errors.New("refused"))
			},
			status:  http.StatusServiceUnavailable,
			code:    ErrDatabaseConnection,
			message: "Database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTestContext()

			tt.call(c)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted(), "Expected handler chain to be aborted")

			response := parseErrorResponse(t, w.Body)
			assert.Equal(t, tt.code, response.Error.Code)
			assert.Equal(t, tt.message, response.Error.Message)
			assert.Equal(t, "test-request-id", response.Error.RequestID)
			if tt.hasDetails {
				assert.NotEmpty(t, response.Error.Details)
			} else {
				assert.Nil(t, response.Error.Details)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	c, w := setupTestContext()

	type filterBody struct {
		County string `validate:"max=5"`
		Ward   string `validate:"max=3"`
	}

	err := validator.New().Struct(filterBody{County: "Nairobi", Ward: "Parklands"})
	require.Error(t, err, "Expected validation to fail")

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors), "Expected validator.ValidationErrors")

	ValidationError(c, validationErrors)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Validation failed for one or more fields", response.Error.Message)
	assert.Equal(t, "Value is too long (maximum: 5 characters)", response.Error.Details["County"])
	assert.Equal(t, "Value is too long (maximum: 3 characters)", response.Error.Details["Ward"])
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		tag      string
		param    string
		expected string
	}{
		{tag: "max", param: "100", expected: "Value is too long (maximum: 100 characters)"},
		{tag: "required", expected: "Validation failed for tag: required"},
		{tag: "unknown_tag", expected: "Validation failed for tag: unknown_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			result := formatValidationError(&mockFieldError{tag: tt.tag, param: tt.param})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestErrorResponseWithoutContext(t *testing.T) {
	// No logger or request ID in context
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/unknown", nil)

	NotFound(c, "Route not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Empty(t, response.Error.RequestID, "Expected empty request ID when not in context")
}

func TestErrorConstants(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", ErrNotFound)
	assert.Equal(t, "BAD_REQUEST", ErrBadRequest)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", ErrInternalServer)
	assert.Equal(t, "VALIDATION_ERROR", ErrValidation)
	assert.Equal(t, "DATABASE_CONNECTION_ERROR", ErrDatabaseConnection)
	assert.Equal(t, "SERVICE_UNAVAILABLE", ErrServiceUnavailable)
}

// mockFieldError is a mock implementation of validator.FieldError for testing.
type mockFieldError struct {
	tag   string
	param string
}

func (m *mockFieldError) Tag() string                    { return m.tag }
func (m *mockFieldError) ActualTag() string              { return m.tag }
func (m *mockFieldError) Namespace() string              { return "" }
func (m *mockFieldError) StructNamespace() string        { return "" }
func (m *mockFieldError) Field() string                  { return "TestField" }
func (m *mockFieldError) StructField() string            { return "TestField" }
func (m *mockFieldError) Value() interface{}             { return nil }
func (m *mockFieldError) Param() string                  { return m.param }
func (m *mockFieldError) Kind() reflect.Kind             { return reflect.String }
func (m *mockFieldError) Type() reflect.Type             { return nil }
func (m *mockFieldError) Translate(ut.Translator) string { return "" }
func (m *mockFieldError) Error() string                  { return "" }
