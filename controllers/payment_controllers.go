package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/events"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/services"
	"github.com/tablescan/qrorder-app/utils"
)

type PaymentController struct {
	DB       *gorm.DB
	Gateway  *services.PaymentGateway
	Notifier *services.Notifier
}

func NewPaymentController(db *gorm.DB, gateway *services.PaymentGateway, notifier *services.Notifier) *PaymentController {
	return &PaymentController{DB: db, Gateway: gateway, Notifier: notifier}
}

// CreatePaymentIntent opens (or returns) the processor intent for an order.
// Calling it twice must not charge twice: a stored intent id is returned
// as-is, and a paid order is rejected outright.
func (pc *PaymentController) CreatePaymentIntent(c *gin.Context) {
	var order models.Order
	if err := pc.DB.First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if order.PaymentStatus == models.PaymentCompleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("order is already paid"))
		return
	}
	if order.Status == models.OrderCancelled {
		utils.RespondError(c, http.StatusBadRequest, errors.New("order is cancelled"))
		return
	}

	var restaurant models.Restaurant
	if err := pc.DB.First(&restaurant, order.RestaurantID).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	if !restaurant.PaymentsEnabled {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("online payments are not enabled for this restaurant"))
		return
	}

	if order.PaymentIntentID != "" {
		utils.RespondJSON(c, http.StatusOK, "Payment intent", gin.H{
			"payment_intent_id": order.PaymentIntentID,
			"amount":            order.Total,
			"currency":          pc.Gateway.Currency(),
		})
		return
	}

	amountCents := int64(math.Round(order.Total * 100))
	intent, err := pc.Gateway.CreateIntent(amountCents, map[string]string{
		"order_id":      strconv.FormatUint(uint64(order.ID), 10),
		"restaurant_id": strconv.FormatUint(uint64(order.RestaurantID), 10),
	})
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, fmt.Errorf("create payment intent: %w", err))
		return
	}

	order.PaymentIntentID = intent.ID
	order.PaymentStatus = models.PaymentProcessing
	if err := pc.DB.Save(&order).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("Payment intent %s opened for order %d", intent.ID, order.ID)
	utils.RespondJSON(c, http.StatusCreated, "Payment intent created", gin.H{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            order.Total,
		"currency":          intent.Currency,
	})
}

// ConfirmPayment polls the processor for the intent's status and settles the
// order if the charge succeeded. The webhook normally gets there first; this
// exists for clients that want to confirm synchronously.
func (pc *PaymentController) ConfirmPayment(c *gin.Context) {
	var order models.Order
	if err := pc.DB.First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if order.PaymentIntentID == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("order has no payment intent"))
		return
	}
	if order.PaymentStatus == models.PaymentCompleted {
		utils.RespondJSON(c, http.StatusOK, "Payment already completed", order)
		return
	}

	intent, err := pc.Gateway.GetIntent(order.PaymentIntentID)
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, fmt.Errorf("check payment intent: %w", err))
		return
	}

	if !services.IntentSucceeded(intent.Status) {
		utils.RespondJSON(c, http.StatusOK, "Payment not completed yet", gin.H{
			"payment_status":   order.PaymentStatus,
			"processor_status": intent.Status,
		})
		return
	}

	if err := settlePayment(pc.DB, pc.Notifier, &order); err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment completed", order)
}

// RefundPayment refunds a paid order in full. Admin only.
func (pc *PaymentController) RefundPayment(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var order models.Order
	if err := pc.DB.Where("restaurant_id = ?", restaurantID).
		First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if order.PaymentStatus != models.PaymentCompleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("order is not paid"))
		return
	}

	if err := pc.Gateway.Refund(order.PaymentIntentID); err != nil {
		utils.RespondError(c, http.StatusBadGateway, fmt.Errorf("refund: %w", err))
		return
	}

	order.PaymentStatus = models.PaymentRefunded
	if err := pc.DB.Save(&order).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %d refunded (intent %s)", order.ID, order.PaymentIntentID)
	events.BroadcastPaymentUpdate(order)
	utils.RespondJSON(c, http.StatusOK, "Payment refunded", order)
}

// settlePayment marks the order paid, confirms it if still pending, and
// queues the receipt. Shared by the confirm endpoint and the webhook. The
// flip runs in a transaction against a fresh read and only writes the
// payment columns, so a concurrent kitchen status update is never clobbered
// by the caller's stale copy.
func settlePayment(db *gorm.DB, notifier *services.Notifier, order *models.Order) error {
	alreadyPaid := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.First(&current, order.ID).Error; err != nil {
			return err
		}
		if current.PaymentStatus == models.PaymentCompleted {
			alreadyPaid = true
			*order = current
			return nil
		}

		updates := map[string]interface{}{"payment_status": models.PaymentCompleted}
		current.PaymentStatus = models.PaymentCompleted
		if current.Status == models.OrderPending {
			now := time.Now()
			updates["status"] = models.OrderConfirmed
			updates["confirmed_at"] = now
			current.Status = models.OrderConfirmed
			current.ConfirmedAt = &now
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", current.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		*order = current
		return nil
	})
	if err != nil {
		return err
	}
	if alreadyPaid {
		return nil
	}

	var restaurant models.Restaurant
	if err := db.First(&restaurant, order.RestaurantID).Error; err == nil &&
		restaurant.NotificationsEnabled {
		notifier.Enqueue(&models.Notification{
			RestaurantID: order.RestaurantID,
			OrderID:      &order.ID,
			Recipient:    order.CustomerPhone,
			Body:         services.PaymentReceiptBody(order, restaurant.Name),
			Kind:         models.NotifyPaymentReceipt,
		})
	}

	utils.InfoLogger.Printf("Order %d paid (intent %s)", order.ID, order.PaymentIntentID)
	events.BroadcastPaymentUpdate(*order)
	return nil
}

// failPayment records a failed charge. The order itself stays open so the
// customer can retry or pay at the counter. Same transactional, scoped
// write as settlePayment: a completed payment is never downgraded.
func failPayment(db *gorm.DB, order *models.Order) error {
	settled := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.First(&current, order.ID).Error; err != nil {
			return err
		}
		if current.PaymentStatus == models.PaymentCompleted {
			settled = true
			*order = current
			return nil
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", current.ID).
			Update("payment_status", models.PaymentFailed).Error; err != nil {
			return err
		}
		current.PaymentStatus = models.PaymentFailed
		*order = current
		return nil
	})
	if err != nil {
		return err
	}
	if settled {
		return nil
	}
	events.BroadcastPaymentUpdate(*order)
	return nil
}
