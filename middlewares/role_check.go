package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

// RequireRoles aborts unless the caller holds one of the given roles.
// Superadmin passes every check.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == models.RoleSuperadmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		utils.RespondError(c, http.StatusForbidden, errors.New("insufficient role"))
		c.Abort()
	}
}

// RequireTenant aborts when the caller carries no restaurant association.
// Keeps superadmin tokens out of tenant-scoped endpoints.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid, _ := c.Get("restaurant_id")
		id, ok := rid.(uint)
		if !ok || id == 0 {
			utils.RespondError(c, http.StatusForbidden, errors.New("no restaurant associated with this account"))
			c.Abort()
			return
		}
		c.Next()
	}
}
