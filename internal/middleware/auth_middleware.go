package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/cart-service/internal/errors"
	"github.com/ikkim/cart-service/pkg/util"
)

// Context keys for user information
const (
	UserIDKey        = "user_id"
	AuthenticatedKey = "authenticated"
)

// AnonymousIDHeader carries the client-held guest cart identity. The
// middleware echoes a freshly minted id back on the same header so the
// client can persist it.
const AnonymousIDHeader = "X-Anonymous-ID"

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// Authenticate validates the JWT (required). Used by the merge endpoint,
// which needs a real authenticated target identity.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			log.Warn("Missing or malformed authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, 401, errors.AuthTokenExpired, "Session has expired")
			} else {
				errors.RespondWithError(c, 401, errors.AuthTokenInvalid, "Invalid authentication token")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(AuthenticatedKey, true)

		log.Debug("User authenticated", map[string]interface{}{
			"user_id": claims.UserID,
		})
		c.Next()
	}
}

// Identify resolves a cart identity for every request: a valid JWT wins,
// otherwise the anonymous id header, otherwise a freshly minted anonymous
// id echoed back to the client. Cart routes never require login.
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if token, ok := bearerToken(c); ok {
			if claims, err := util.ValidateToken(token, m.jwtSecret); err == nil {
				c.Set(UserIDKey, claims.UserID)
				c.Set(AuthenticatedKey, true)
				c.Next()
				return
			}
			log.Debug("Invalid token on cart request, falling back to anonymous identity", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
		}

		anonymousID := c.GetHeader(AnonymousIDHeader)
		if _, err := uuid.Parse(anonymousID); err != nil {
			anonymousID = uuid.NewString()
			log.Debug("Minted anonymous cart identity", map[string]interface{}{
				"anonymous_id": anonymousID,
			})
		}
		c.Header(AnonymousIDHeader, anonymousID)
		c.Set(UserIDKey, anonymousID)
		c.Set(AuthenticatedKey, false)
		c.Next()
	}
}

// GetUserID returns the resolved cart identity from the gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(UserIDKey)
	return userID, userID != ""
}

// IsAuthenticated reports whether the identity came from a valid JWT
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(AuthenticatedKey)
}
