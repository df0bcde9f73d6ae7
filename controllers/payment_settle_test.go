package controllers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/services"
	"github.com/tablescan/qrorder-app/utils"
)

type silentSender struct{}

func (silentSender) Send(to, body string) error { return nil }

func settleTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Restaurant{}, &models.Order{}, &models.OrderItem{},
		&models.Notification{},
	))
	return db
}

func seedSettleOrder(t *testing.T, db *gorm.DB, status, paymentStatus string) models.Order {
	t.Helper()

	restaurant := models.Restaurant{Name: "Testaurant", Active: true}
	require.NoError(t, db.Create(&restaurant).Error)

	order := models.Order{
		RestaurantID:  restaurant.ID,
		TableID:       1,
		CustomerName:  "Dana",
		CustomerPhone: "+15551234567",
		Status:        status,
		PaymentStatus: paymentStatus,
		Total:         27.00,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

// A webhook settling against a copy loaded before the kitchen moved the
// order must not undo the kitchen's changes.
func TestSettlePaymentKeepsConcurrentKitchenUpdate(t *testing.T) {
	db := settleTestDB(t, "settle_stale")
	order := seedSettleOrder(t, db, models.OrderConfirmed, models.PaymentProcessing)

	var stale models.Order
	require.NoError(t, db.First(&stale, order.ID).Error)

	// The kitchen advances the order after the handler loaded its copy.
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status": models.OrderPreparing,
			"notes":  "extra napkins",
		}).Error)

	notifier := services.NewNotifier(db, silentSender{})
	require.NoError(t, settlePayment(db, notifier, &stale))

	var out models.Order
	require.NoError(t, db.First(&out, order.ID).Error)
	assert.Equal(t, models.PaymentCompleted, out.PaymentStatus)
	assert.Equal(t, models.OrderPreparing, out.Status)
	assert.Equal(t, "extra napkins", out.Notes)
	assert.Nil(t, out.ConfirmedAt, "only a pending order gets auto-confirmed")
	assert.Equal(t, models.OrderPreparing, stale.Status, "the caller's copy is refreshed")
}

func TestSettlePaymentConfirmsPendingOrder(t *testing.T) {
	db := settleTestDB(t, "settle_pending")
	order := seedSettleOrder(t, db, models.OrderPending, models.PaymentProcessing)

	notifier := services.NewNotifier(db, silentSender{})
	require.NoError(t, settlePayment(db, notifier, &order))

	var out models.Order
	require.NoError(t, db.First(&out, order.ID).Error)
	assert.Equal(t, models.PaymentCompleted, out.PaymentStatus)
	assert.Equal(t, models.OrderConfirmed, out.Status)
	assert.NotNil(t, out.ConfirmedAt)
}

func TestFailPaymentNeverDowngradesPaidOrder(t *testing.T) {
	db := settleTestDB(t, "fail_paid")
	order := seedSettleOrder(t, db, models.OrderConfirmed, models.PaymentProcessing)

	var stale models.Order
	require.NoError(t, db.First(&stale, order.ID).Error)

	// The charge settles between the handler's read and the failure event.
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_status", models.PaymentCompleted).Error)

	require.NoError(t, failPayment(db, &stale))

	var out models.Order
	require.NoError(t, db.First(&out, order.ID).Error)
	assert.Equal(t, models.PaymentCompleted, out.PaymentStatus)
	assert.Equal(t, models.PaymentCompleted, stale.PaymentStatus)
}
