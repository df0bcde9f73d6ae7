package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

// Event types pushed to staff/admin dashboards.
const (
	EventOrderCreated   = "order_created"
	EventOrderUpdate    = "order_update"
	EventPaymentUpdate  = "payment_update"
	EventServiceRequest = "service_request"
	EventTableUpdate    = "table_update"
	EventWaitlistUpdate = "waitlist_update"
	EventReviewCreated  = "review_created"
	EventStaffNotice    = "staff_notice"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds the connected dashboard clients, tagged with restaurant id so
// events only fan out inside the tenant. Restaurant id 0 receives every
// tenant's events; the socket handler only registers it for superadmin
// tokens.
type Hub struct {
	clients map[*websocket.Conn]uint
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]uint),
}

func RegisterClient(conn *websocket.Conn, restaurantID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = restaurantID
}

func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// Broadcast sends the message to every client of the given tenant.
func Broadcast(restaurantID uint, msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("marshal event %s: %v", msg.Event, err)
		return
	}

	for conn, rid := range hub.clients {
		if rid != 0 && rid != restaurantID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("send event %s: %v", msg.Event, err)
		}
	}
}

func BroadcastOrderCreated(order models.Order) {
	Broadcast(order.RestaurantID, Message{Event: EventOrderCreated, Data: order})
}

func BroadcastOrderUpdate(order models.Order) {
	Broadcast(order.RestaurantID, Message{Event: EventOrderUpdate, Data: order})
}

func BroadcastPaymentUpdate(order models.Order) {
	Broadcast(order.RestaurantID, Message{
		Event: EventPaymentUpdate,
		Data: map[string]interface{}{
			"order_id":       order.ID,
			"payment_status": order.PaymentStatus,
			"status":         order.Status,
		},
	})
}

func BroadcastServiceRequest(req models.ServiceRequest) {
	Broadcast(req.RestaurantID, Message{Event: EventServiceRequest, Data: req})
}

func BroadcastTableUpdate(table models.Table) {
	Broadcast(table.RestaurantID, Message{Event: EventTableUpdate, Data: table})
}

func BroadcastWaitlistUpdate(entry models.WaitingListEntry) {
	Broadcast(entry.RestaurantID, Message{Event: EventWaitlistUpdate, Data: entry})
}

func BroadcastReviewCreated(review models.Review) {
	Broadcast(review.RestaurantID, Message{Event: EventReviewCreated, Data: review})
}

func BroadcastStaffNotice(restaurantID uint, text string) {
	Broadcast(restaurantID, Message{Event: EventStaffNotice, Data: text})
}
