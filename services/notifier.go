package services

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

// Notifier is the outbound SMS queue. Every message is persisted as a
// Notification row before dispatch, then delivered by a worker goroutine
// with bounded retries, so a failed send is visible and retryable instead of
// silently dropped. Delivery never blocks an HTTP response.
type Notifier struct {
	MaxAttempts   int
	Backoff       time.Duration
	SweepInterval time.Duration

	db     *gorm.DB
	sender SMSSender
	queue  chan uint
	stop   chan struct{}
	wg     sync.WaitGroup
}

func NewNotifier(db *gorm.DB, sender SMSSender) *Notifier {
	return &Notifier{
		MaxAttempts:   3,
		Backoff:       2 * time.Second,
		SweepInterval: time.Minute,
		db:            db,
		sender:        sender,
		queue:         make(chan uint, 256),
		stop:          make(chan struct{}),
	}
}

func (n *Notifier) Start() {
	n.wg.Add(1)
	go n.run()
}

func (n *Notifier) Stop() {
	close(n.stop)
	n.wg.Wait()
}

// Enqueue persists the notification and hands it to the worker. If the
// queue is full the row stays pending and the sweep picks it up.
func (n *Notifier) Enqueue(notif *models.Notification) {
	if notif.Status == "" {
		notif.Status = models.NotificationPending
	}
	if err := n.db.Create(notif).Error; err != nil {
		utils.ErrorLogger.Printf("persist notification: %v", err)
		return
	}
	select {
	case n.queue <- notif.ID:
	default:
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			return
		case id := <-n.queue:
			n.deliver(id)
		case <-ticker.C:
			n.sweep()
		}
	}
}

// deliver makes one send attempt. A failure reschedules the row with
// exponential backoff via NextAttemptAt, to be picked up by the sweep, until
// MaxAttempts marks it failed. One attempt per call keeps the worker
// responsive: a failing recipient never holds up the rest of the queue or a
// pending Stop.
func (n *Notifier) deliver(id uint) {
	var notif models.Notification
	if err := n.db.First(&notif, id).Error; err != nil {
		utils.ErrorLogger.Printf("load notification %d: %v", id, err)
		return
	}
	if notif.Status != models.NotificationPending {
		return
	}

	notif.Attempts++
	err := n.sender.Send(notif.Recipient, notif.Body)
	if err == nil {
		now := time.Now()
		notif.Status = models.NotificationSent
		notif.SentAt = &now
		notif.LastError = ""
		notif.NextAttemptAt = nil
		n.db.Save(&notif)
		return
	}

	notif.LastError = err.Error()
	utils.ErrorLogger.Printf("sms attempt %d/%d for notification %d failed: %v",
		notif.Attempts, n.MaxAttempts, notif.ID, err)

	if notif.Attempts >= n.MaxAttempts {
		notif.Status = models.NotificationFailed
		n.db.Save(&notif)
		return
	}

	next := time.Now().Add(n.Backoff * time.Duration(1<<(notif.Attempts-1)))
	notif.NextAttemptAt = &next
	n.db.Save(&notif)
}

// sweep retries due pending rows (scheduled backoffs, missed channel
// hand-offs, crash leftovers).
func (n *Notifier) sweep() {
	var ids []uint
	if err := n.db.Model(&models.Notification{}).
		Where("status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
			models.NotificationPending, time.Now()).
		Pluck("id", &ids).Error; err != nil {
		utils.ErrorLogger.Printf("sweep pending notifications: %v", err)
		return
	}
	for _, id := range ids {
		n.deliver(id)
	}
}

/*
========================================
 MESSAGE TEMPLATES
========================================
*/

func OrderConfirmationBody(order *models.Order, restaurantName string) string {
	return fmt.Sprintf("%s: order #%d received. Estimated preparation time %d minutes. Total %.2f.",
		restaurantName, order.ID, order.EstimatedPrepMinutes, order.Total)
}

func AllergenAlertBody(order *models.Order) string {
	s := order.AllergenSummary
	return fmt.Sprintf("Allergen alert for order #%d (table %d): avoid [%s], dietary [%s], %d special instruction(s).",
		order.ID, order.TableID,
		joinList(s.AvoidAllergens), joinList(s.DietaryPreferences), s.SpecialInstructionCount)
}

func StatusUpdateBody(order *models.Order, restaurantName string) string {
	var line string
	switch order.Status {
	case models.OrderConfirmed:
		line = "your order has been confirmed"
	case models.OrderPreparing:
		line = "the kitchen has started preparing your order"
	case models.OrderReady:
		line = "your order is ready"
	case models.OrderServed:
		line = "your order has been served, enjoy"
	case models.OrderCompleted:
		line = "thank you for your visit"
	case models.OrderCancelled:
		line = "your order has been cancelled"
	default:
		line = "your order status is now " + order.Status
	}
	return fmt.Sprintf("%s: %s (order #%d).", restaurantName, line, order.ID)
}

func PaymentReceiptBody(order *models.Order, restaurantName string) string {
	return fmt.Sprintf("%s: payment of %.2f for order #%d received. Thank you!",
		restaurantName, order.Total, order.ID)
}

func WaitlistReadyBody(entry *models.WaitingListEntry, restaurantName string) string {
	return fmt.Sprintf("%s: your table for %d is ready. Please see the host stand.",
		restaurantName, entry.PartySize)
}

func joinList(l models.StringList) string {
	out := ""
	for i, v := range l {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
