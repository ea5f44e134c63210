package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/internal/rbac"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
	"github.com/noah-isme/ug1-portal-api/pkg/response"
)

// PathGuard enforces the prefix table for every request. API paths fail with a
// structured 401/403; UI paths redirect to the login page or the caller's own home.
func PathGuard(policy *rbac.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		claims := Claims(c)
		var role models.UserRole
		if claims != nil {
			role = claims.Role
		}

		decision, rule := policy.Decide(path, role, claims != nil)
		switch decision {
		case rbac.DecisionPublic, rbac.DecisionAllow:
			c.Next()
		case rbac.DecisionUnauthenticated:
			if rule.Kind == rbac.KindUI {
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			response.Error(c, authError(c))
			c.Abort()
		default:
			if rule.Kind == rbac.KindUI {
				c.Redirect(http.StatusFound, policy.Home(role))
				c.Abort()
				return
			}
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not permitted for this route"))
			c.Abort()
		}
	}
}

// RequireRoles gates a single route or group on the caller's role.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, authError(c))
			c.Abort()
			return
		}
		if !rbac.Allowed(claims.Role, roles...) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not permitted for this route"))
			c.Abort()
			return
		}
		c.Next()
	}
}
