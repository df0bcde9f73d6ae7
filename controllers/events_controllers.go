package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tablescan/qrorder-app/events"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleEventsSocket upgrades a dashboard connection and subscribes it to
// the tenant's event stream. The all-tenant subscription (restaurant id 0)
// is reserved for superadmin tokens; any other token without a tenant is
// turned away before the upgrade. The read loop only exists to detect
// disconnects.
func HandleEventsSocket(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)
	if restaurantID == 0 && c.GetString("role") != models.RoleSuperadmin {
		utils.RespondError(c, http.StatusForbidden,
			errors.New("no restaurant associated with this account"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade: %v", err)
		return
	}

	events.RegisterClient(conn, restaurantID)
	utils.InfoLogger.Printf("Dashboard socket connected (restaurant=%d)", restaurantID)

	go func() {
		defer events.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
