package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/pkg/jwt"
)

const (
	// UserSessionCookieName is the name of the session cookie set by the
	// marketplace's auth service.
	UserSessionCookieName = "mh_session"

	// UserSessionContextKey is the key used to store the session in context
	UserSessionContextKey = "user_session"
)

var (
	ErrSessionNotFound = errors.New("session not found in context")
	ErrInvalidSession  = errors.New("invalid session type")
)

// UserSessionMiddleware validates the session token and adds the user session
// to the request context. The token is read from the session cookie, or from
// an Authorization bearer header for non-browser clients.
func UserSessionMiddleware(tokenManager *jwt.TokenManager, cookieDomain string, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := sessionToken(c)
		if token == "" {
			_ = c.Error(fmt.Errorf("missing session token")) //nolint:errcheck
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := tokenManager.ValidateToken(token)
		if err != nil {
			_ = c.Error(fmt.Errorf("invalid session token: %w", err)) //nolint:errcheck

			if fromCookie {
				clearSessionCookie(c, cookieDomain, cookieSecure)
			}

			if errors.Is(err, jwt.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			}
			c.Abort()
			return
		}

		session := &models.UserSession{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Name:      claims.Name,
			ExpiresAt: claims.ExpiresAt.Unix(),
			IssuedAt:  claims.IssuedAt.Unix(),
		}

		c.Set(UserSessionContextKey, session)
		c.Next()
	}
}

// sessionToken extracts the session token from the cookie or, failing that,
// from the Authorization header. The second return value reports whether the
// token came from the cookie.
func sessionToken(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(UserSessionCookieName); err == nil && cookie != "" {
		return cookie, true
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), false
	}
	return "", false
}

// GetUserSession extracts the session from context
func GetUserSession(c *gin.Context) (*models.UserSession, error) {
	val, exists := c.Get(UserSessionContextKey)
	if !exists {
		return nil, ErrSessionNotFound
	}

	session, ok := val.(*models.UserSession)
	if !ok {
		return nil, ErrInvalidSession
	}

	return session, nil
}

// ClearSessionCookie clears the user session cookie
func ClearSessionCookie(c *gin.Context, domain string, secure bool) {
	clearSessionCookie(c, domain, secure)
}

func clearSessionCookie(c *gin.Context, domain string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		UserSessionCookieName,
		"",
		-1,
		"/",
		domain,
		secure,
		true, // HttpOnly
	)
}
