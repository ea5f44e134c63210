package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextCredentialErrKey stores why a presented credential was rejected.
	ContextCredentialErrKey = "credentialError"
)

// TokenValidator verifies a signed access token.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Authenticate reads the session cookie (or a Bearer header) and attaches the verified
// claims. It never blocks; PathGuard and RequireRoles decide what an anonymous or
// badly-credentialed caller may reach.
func Authenticate(validator TokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := credentialFrom(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.Set(ContextCredentialErrKey, err)
			c.Next()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// Claims returns the verified claims attached to the request, if any.
func Claims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// authError picks the error for a request that lacks valid claims.
func authError(c *gin.Context) error {
	if v, ok := c.Get(ContextCredentialErrKey); ok {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return appErrors.ErrUnauthorized
}

func credentialFrom(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if value, err := c.Cookie(cookieName); err == nil && value != "" {
			return value
		}
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
