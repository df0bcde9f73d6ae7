package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tablescan/qrorder-app/utils"
)

// WebSocketAuthMiddleware authenticates dashboard socket connections via a
// token query parameter, since browsers cannot set headers on WebSocket
// upgrade requests.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("restaurant_id", claims.RestaurantID)
		c.Next()
	}
}
