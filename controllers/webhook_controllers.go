package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/services"
	"github.com/tablescan/qrorder-app/utils"
)

type WebhookController struct {
	DB       *gorm.DB
	Gateway  *services.PaymentGateway
	Notifier *services.Notifier
}

func NewWebhookController(db *gorm.DB, gateway *services.PaymentGateway, notifier *services.Notifier) *WebhookController {
	return &WebhookController{DB: db, Gateway: gateway, Notifier: notifier}
}

// paymentEvent is the processor's webhook envelope. Only the intent id and
// event type are read; amounts always come from our own order row.
type paymentEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// HandlePaymentWebhook receives asynchronous charge results from the card
// processor. The signature is verified against the raw body before anything
// is parsed; a bad signature is rejected with no state change.
func (wc *WebhookController) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !wc.Gateway.VerifyWebhookSignature(payload, c.GetHeader("Pay-Signature")) {
		utils.ErrorLogger.Printf("Webhook rejected: bad signature from %s", c.ClientIP())
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid webhook signature"))
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if event.Data.Object.ID == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("webhook payload missing intent id"))
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		wc.applyIntentResult(c, event.Data.Object.ID, true)
	case "payment_intent.payment_failed":
		wc.applyIntentResult(c, event.Data.Object.ID, false)
	default:
		// Unknown event types are acknowledged so the processor stops
		// retrying them.
		utils.InfoLogger.Printf("Webhook event %q ignored", event.Type)
		utils.RespondJSON(c, http.StatusOK, "Event ignored", nil)
	}
}

func (wc *WebhookController) applyIntentResult(c *gin.Context, intentID string, succeeded bool) {
	var order models.Order
	if err := wc.DB.Where("payment_intent_id = ?", intentID).First(&order).Error; err != nil {
		// The intent may belong to another system sharing the processor
		// account. Acknowledge so the processor does not retry forever.
		utils.ErrorLogger.Printf("Webhook for unknown intent %s", intentID)
		utils.RespondJSON(c, http.StatusOK, "No matching order", nil)
		return
	}

	if succeeded {
		if err := settlePayment(wc.DB, wc.Notifier, &order); err != nil {
			utils.RespondInternal(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Payment recorded", nil)
		return
	}

	if err := failPayment(wc.DB, &order); err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment failure recorded", nil)
}
