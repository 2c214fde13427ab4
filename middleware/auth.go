package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"railway-booking/auth"
	"railway-booking/models"
)

const (
	APIKeyHeader = "X-API-Key"
	userKey      = "user"
)

// RequireUser rejects requests without a valid bearer token for an
// existing user and stores the user on the context
func RequireUser(authn *auth.Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNoToken):
				abort(c, http.StatusUnauthorized, "Access denied. No token provided.")
			case errors.Is(err, auth.ErrUnknownUser):
				abort(c, http.StatusUnauthorized, "Invalid token. User not found.")
			case errors.Is(err, auth.ErrInvalidToken):
				abort(c, http.StatusUnauthorized, "Invalid token.")
			default:
				logger.Error("Token verification error", zap.Error(err))
				abort(c, http.StatusInternalServerError, "Server error during authentication.")
			}
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin guards the inventory administration surface. The API key is
// checked here; the decision is made by the admin policy.
func RequireAdmin(policy *auth.AdminPolicy, apiKey string, authn *auth.Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		header := c.GetHeader("Authorization")
		if key == "" && header == "" {
			abort(c, http.StatusUnauthorized, "Access denied. No API key provided.")
			return
		}

		input := auth.AdminInput{
			APIKeyValid: apiKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1,
			Method:      c.Request.Method,
			Path:        c.FullPath(),
		}
		if header != "" && authn != nil {
			if user, err := authn.Authenticate(c.Request.Context(), header); err == nil {
				input.Role = string(user.Role)
				c.Set(userKey, user)
			}
		}

		allowed, err := policy.Allow(c.Request.Context(), input)
		if err != nil {
			logger.Error("Admin policy evaluation failed", zap.Error(err))
			abort(c, http.StatusInternalServerError, "Server error during authorization.")
			return
		}
		if !allowed {
			abort(c, http.StatusForbidden, "Access denied. Invalid API key.")
			return
		}

		c.Next()
	}
}

// UserFrom returns the authenticated user, or nil
func UserFrom(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.Response{Success: false, Message: message})
}
