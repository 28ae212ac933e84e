package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/pkg/jwt"
	"github.com/mentorhub/booking-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)

	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func sessionRouter(tm *jwt.TokenManager) (*gin.Engine, *models.UserSession) {
	router := gin.New()
	captured := &models.UserSession{}

	router.Use(UserSessionMiddleware(tm, "", false))
	router.GET("/test", func(c *gin.Context) {
		session, err := GetUserSession(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		*captured = *session
		c.Status(http.StatusOK)
	})

	return router, captured
}

func TestUserSessionMiddleware_ValidCookie(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-auth", 1)
	router, captured := sessionRouter(tm)

	token, err := tm.GenerateToken("u-1", "dana@example.com", "Dana")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: UserSessionCookieName, Value: token})

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", captured.UserID)
	assert.Equal(t, "dana@example.com", captured.Email)
	assert.Equal(t, "Dana", captured.Name)
}

func TestUserSessionMiddleware_ValidBearerToken(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-auth", 1)
	router, captured := sessionRouter(tm)

	token, err := tm.GenerateToken("u-1", "dana@example.com", "Dana")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", captured.UserID)
}

func TestUserSessionMiddleware_MissingToken(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-auth", 1)
	router, _ := sessionRouter(tm)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserSessionMiddleware_InvalidToken(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-auth", 1)
	router, _ := sessionRouter(tm)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: UserSessionCookieName, Value: "not-a-token"})

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserSessionMiddleware_TokenSignedWithWrongSecret(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-auth", 1)
	other := jwt.NewTokenManager("other-secret", "mentorhub-auth", 1)
	router, _ := sessionRouter(tm)

	token, err := other.GenerateToken("u-1", "dana@example.com", "Dana")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: UserSessionCookieName, Value: token})

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserSession_MissingFromContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetUserSession(c)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
