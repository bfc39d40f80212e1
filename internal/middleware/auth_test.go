package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "go-intents", "solver-1", []string{"anvil"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, "go-intents", token)
	require.NoError(t, err)
	assert.Equal(t, "solver-1", claims.Operator)
	assert.True(t, claims.AllowsNetwork("ANVIL"))
	assert.False(t, claims.AllowsNetwork("mainnet"))

	_, err = ValidateToken("other-secret", "go-intents", token)
	assert.Error(t, err)

	_, err = ValidateToken(testSecret, "someone-else", token)
	assert.Error(t, err)

	expired, err := GenerateToken(testSecret, "go-intents", "solver-1", nil, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(testSecret, "go-intents", expired)
	assert.Error(t, err)

	_, err = GenerateToken("", "go-intents", "solver-1", nil, time.Hour)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	router := gin.New()
	router.GET("/protected", NewAuthMiddleware(logger, testSecret, "").RequireAuth(), func(c *gin.Context) {
		claims, ok := OperatorFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Operator)
	})

	valid, err := GenerateToken(testSecret, "", "solver-1", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized, body: "MISSING_AUTH_HEADER"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, body: "INVALID_AUTH_FORMAT"},
		{name: "empty token", header: "Bearer  ", status: http.StatusUnauthorized, body: "EMPTY_TOKEN"},
		{name: "bad token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized, body: "INVALID_TOKEN"},
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK, body: "solver-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}
