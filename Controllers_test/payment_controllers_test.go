package Controllers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/controllers"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/services"
)

// fakeProcessor is a minimal stand-in for the card processor's intent API.
type fakeProcessor struct {
	createCalls  int
	intentStatus string
}

func (fp *fakeProcessor) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/v1/payment_intents":
			fp.createCalls++
			fmt.Fprintf(w, `{"id":"pi_test_%d","status":"requires_payment_method","amount":2700,"currency":"usd","client_secret":"cs_test"}`,
				fp.createCalls)
		case r.Method == "GET" && strings.HasPrefix(r.URL.Path, "/v1/payment_intents/"):
			fmt.Fprintf(w, `{"id":%q,"status":%q,"amount":2700,"currency":"usd"}`,
				strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/"), fp.intentStatus)
		case r.Method == "POST" && r.URL.Path == "/v1/refunds":
			fmt.Fprint(w, `{"id":"re_test","status":"succeeded"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func setupPaymentRouter(db *gorm.DB, gateway *services.PaymentGateway, restaurantID uint) *gin.Engine {
	router := newTestRouter()
	notifier := services.NewNotifier(db, &recordingSender{})
	paymentCtrl := controllers.NewPaymentController(db, gateway, notifier)
	router.POST("/orders/:order_id/payment-intent", paymentCtrl.CreatePaymentIntent)
	router.POST("/orders/:order_id/confirm-payment", paymentCtrl.ConfirmPayment)

	admin := router.Group("", asStaff(restaurantID))
	admin.POST("/orders/:order_id/refund", paymentCtrl.RefundPayment)
	return router
}

func seedOrder(t *testing.T, db *gorm.DB, restaurant models.Restaurant, table models.Table) models.Order {
	t.Helper()
	order := models.Order{
		RestaurantID:  restaurant.ID,
		TableID:       table.ID,
		CustomerName:  "Dana",
		CustomerPhone: "+15551234567",
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		Subtotal:      25.00,
		Tax:           2.00,
		Total:         27.00,
		TaxRate:       0.08,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestCreatePaymentIntentIsIdempotent(t *testing.T) {
	db := setupTestDB(t, "payment_idempotent")
	restaurant, table, _ := seedRestaurant(t, db)
	order := seedOrder(t, db, restaurant, table)

	fp := &fakeProcessor{intentStatus: "requires_payment_method"}
	srv := fp.server()
	defer srv.Close()

	gateway := services.NewPaymentGateway(services.PaymentConfig{
		SecretKey: "sk_test", BaseURL: srv.URL,
	})
	router := setupPaymentRouter(db, gateway, restaurant.ID)

	w := doJSON(t, router, "POST", fmt.Sprintf("/orders/%d/payment-intent", order.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Second call must reuse the stored intent, not open another one.
	w = doJSON(t, router, "POST", fmt.Sprintf("/orders/%d/payment-intent", order.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fp.createCalls, "processor must only be hit once")

	var updated models.Order
	require.NoError(t, db.First(&updated, order.ID).Error)
	assert.Equal(t, "pi_test_1", updated.PaymentIntentID)
	assert.Equal(t, models.PaymentProcessing, updated.PaymentStatus)
}

func TestCreatePaymentIntentRejectsPaidOrder(t *testing.T) {
	db := setupTestDB(t, "payment_paid")
	restaurant, table, _ := seedRestaurant(t, db)
	order := seedOrder(t, db, restaurant, table)
	require.NoError(t, db.Model(&order).
		Update("payment_status", models.PaymentCompleted).Error)

	fp := &fakeProcessor{}
	srv := fp.server()
	defer srv.Close()

	gateway := services.NewPaymentGateway(services.PaymentConfig{
		SecretKey: "sk_test", BaseURL: srv.URL,
	})
	router := setupPaymentRouter(db, gateway, restaurant.ID)

	w := doJSON(t, router, "POST", fmt.Sprintf("/orders/%d/payment-intent", order.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, fp.createCalls, "a paid order must never reach the processor")
}

func TestConfirmPaymentSettlesOrder(t *testing.T) {
	db := setupTestDB(t, "payment_confirm")
	restaurant, table, _ := seedRestaurant(t, db)
	order := seedOrder(t, db, restaurant, table)
	require.NoError(t, db.Model(&order).Updates(map[string]interface{}{
		"payment_intent_id": "pi_test_1",
		"payment_status":    models.PaymentProcessing,
	}).Error)

	fp := &fakeProcessor{intentStatus: "succeeded"}
	srv := fp.server()
	defer srv.Close()

	gateway := services.NewPaymentGateway(services.PaymentConfig{
		SecretKey: "sk_test", BaseURL: srv.URL,
	})
	router := setupPaymentRouter(db, gateway, restaurant.ID)

	w := doJSON(t, router, "POST", fmt.Sprintf("/orders/%d/confirm-payment", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Order
	require.NoError(t, db.First(&updated, order.ID).Error)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus)
	assert.Equal(t, models.OrderConfirmed, updated.Status)
	assert.NotNil(t, updated.ConfirmedAt)

	// Payment settles with a receipt queued.
	var count int64
	db.Model(&models.Notification{}).
		Where("kind = ?", models.NotifyPaymentReceipt).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestConfirmPaymentNotSucceededYet(t *testing.T) {
	db := setupTestDB(t, "payment_not_yet")
	restaurant, table, _ := seedRestaurant(t, db)
	order := seedOrder(t, db, restaurant, table)
	require.NoError(t, db.Model(&order).Updates(map[string]interface{}{
		"payment_intent_id": "pi_test_1",
		"payment_status":    models.PaymentProcessing,
	}).Error)

	fp := &fakeProcessor{intentStatus: "requires_payment_method"}
	srv := fp.server()
	defer srv.Close()

	gateway := services.NewPaymentGateway(services.PaymentConfig{
		SecretKey: "sk_test", BaseURL: srv.URL,
	})
	router := setupPaymentRouter(db, gateway, restaurant.ID)

	w := doJSON(t, router, "POST", fmt.Sprintf("/orders/%d/confirm-payment", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Order
	require.NoError(t, db.First(&updated, order.ID).Error)
	assert.Equal(t, models.PaymentProcessing, updated.PaymentStatus)
	assert.Equal(t, models.OrderPending, updated.Status)
}

func TestRefundPayment(t *testing.T) {
	db := setupTestDB(t, "payment_refund")
	restaurant, table, _ := seedRestaurant(t, db)
	order := seedOrder(t, db, restaurant, table)
	require.NoError(t, db.Model(&order).Updates(map[string]interface{}{
		"payment_intent_id": "pi_test_1",
		"payment_status":    models.PaymentCompleted,
	}).Error)

	fp := &fakeProcessor{}
	srv := fp.server()
	defer srv.Close()

	gateway := services.NewPaymentGateway(services.PaymentConfig{
		SecretKey: "sk_test", BaseURL: srv.URL,
	})
	router := setupPaymentRouter(db, gateway, restaurant.ID)

	w := doJSON(t, router, "POST", fmt.Sprintf("/orders/%d/refund", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Order
	require.NoError(t, db.First(&updated, order.ID).Error)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
}
