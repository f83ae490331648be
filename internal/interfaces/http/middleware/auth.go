// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/pkg/auth"
)

// ClaimsKey is the gin context key holding the caller's *auth.Claims
const ClaimsKey = "auth_claims"

// Authenticator guards routes with bearer access tokens
type Authenticator struct {
	jwtManager *auth.JWTManager
	log        logrus.FieldLogger
}

// NewAuthenticator creates an authenticator backed by jwtManager
func NewAuthenticator(jwtManager *auth.JWTManager, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{jwtManager: jwtManager, log: log}
}

// RequireUser rejects requests without a valid access token and stores the
// token's claims on the context.
func (a *Authenticator) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			a.reject(c, http.StatusUnauthorized, "Authorization header required", nil)
			return
		}

		token := auth.ExtractTokenFromHeader(header)
		if token == "" {
			a.reject(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := a.jwtManager.ValidateAccessToken(token)
		if err != nil {
			a.reject(c, http.StatusUnauthorized, "Invalid or expired token", err)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after RequireUser
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			a.reject(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		if !claims.IsAdmin {
			a.reject(c, http.StatusForbidden, "Admin access required", nil)
			return
		}
		c.Next()
	}
}

func (a *Authenticator) reject(c *gin.Context, status int, message string, err error) {
	entry := a.log.WithFields(logrus.Fields{
		"request_id":  c.GetString(RequestIDKey),
		"path":        c.Request.URL.Path,
		"status_code": status,
		"client_ip":   c.ClientIP(),
	})
	if claims, ok := ClaimsFromContext(c); ok {
		entry = entry.WithField("user_id", claims.UserID)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Info(message)

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// ClaimsFromContext returns the claims stored by RequireUser
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// GetUserIDFromContext returns the authenticated user's id
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
