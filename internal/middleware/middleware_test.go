package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-that-is-long-enough"

func signed(t *testing.T, claims jwt.RegisteredClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := middleware.GetUserIDFromContext(c)
		c.String(http.StatusOK, userID)
	})
	r.GET("/whoami", handlers...)
	return r
}

func get(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	valid := jwt.RegisteredClaims{
		Issuer:    "school-ledger",
		Subject:   "bursar",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noSubject := valid
	noSubject.Subject = ""

	r := newRouter(middleware.AuthMiddleware(secret, jwt.WithIssuer("school-ledger")))

	t.Run("valid token sets the user", func(t *testing.T) {
		w := get(r, "Bearer "+signed(t, valid, secret))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bursar", w.Body.String())
	})

	rejects := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"bad signature":  "Bearer " + signed(t, valid, "another-secret"),
		"expired":        "Bearer " + signed(t, expired, secret),
		"no subject":     "Bearer " + signed(t, noSubject, secret),
	}
	for name, header := range rejects {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, get(r, header).Code)
		})
	}

	t.Run("wrong issuer", func(t *testing.T) {
		other := valid
		other.Issuer = "someone-else"
		assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+signed(t, other, secret)).Code)
	})
}

func TestRateLimit(t *testing.T) {
	limiter, err := middleware.NewMemoryLimiter("2-M")
	require.NoError(t, err)
	r := newRouter(middleware.RateLimit(limiter))

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)
}

func TestNewMemoryLimiter_RejectsBadFormat(t *testing.T) {
	_, err := middleware.NewMemoryLimiter("lots")
	assert.Error(t, err)
}

func TestGetLoggerFromCtx_DefaultsWhenMissing(t *testing.T) {
	assert.NotNil(t, middleware.GetLoggerFromCtx(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
