package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

// flakySender fails a fixed number of times before succeeding.
type flakySender struct {
	failures int
	calls    int
}

func (fs *flakySender) Send(to, body string) error {
	fs.calls++
	if fs.calls <= fs.failures {
		return errors.New("temporary carrier error")
	}
	return nil
}

func notifierTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	utils.InitLogger()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func TestDeliverReschedulesUntilSuccess(t *testing.T) {
	db := notifierTestDB(t, "notifier_retry")
	sender := &flakySender{failures: 2}
	n := NewNotifier(db, sender)
	n.Backoff = 0 // retries become due immediately

	notif := models.Notification{
		Recipient: "+15551234567",
		Body:      "test",
		Kind:      models.NotifyStatusUpdate,
		Status:    models.NotificationPending,
	}
	require.NoError(t, db.Create(&notif).Error)

	// First attempt fails and is rescheduled, not retried inline.
	n.deliver(notif.ID)

	var out models.Notification
	require.NoError(t, db.First(&out, notif.ID).Error)
	assert.Equal(t, models.NotificationPending, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.NotNil(t, out.NextAttemptAt)
	assert.Equal(t, "temporary carrier error", out.LastError)

	// The sweep picks up the due row; third attempt succeeds.
	n.sweep()
	n.sweep()

	require.NoError(t, db.First(&out, notif.ID).Error)
	assert.Equal(t, models.NotificationSent, out.Status)
	assert.Equal(t, 3, out.Attempts)
	assert.NotNil(t, out.SentAt)
	assert.Empty(t, out.LastError)
	assert.Nil(t, out.NextAttemptAt)
}

func TestDeliverMarksFailedAfterMaxAttempts(t *testing.T) {
	db := notifierTestDB(t, "notifier_exhaust")
	sender := &flakySender{failures: 100}
	n := NewNotifier(db, sender)
	n.Backoff = 0

	notif := models.Notification{
		Recipient: "+15551234567",
		Body:      "test",
		Kind:      models.NotifyOrderConfirmation,
		Status:    models.NotificationPending,
	}
	require.NoError(t, db.Create(&notif).Error)

	n.deliver(notif.ID)
	n.sweep()
	n.sweep()

	var out models.Notification
	require.NoError(t, db.First(&out, notif.ID).Error)
	assert.Equal(t, models.NotificationFailed, out.Status)
	assert.Equal(t, n.MaxAttempts, out.Attempts)
	assert.Equal(t, "temporary carrier error", out.LastError)
	assert.Equal(t, n.MaxAttempts, sender.calls)

	// A failed row is terminal.
	n.sweep()
	assert.Equal(t, n.MaxAttempts, sender.calls)
}

func TestSweepSkipsBackoffNotYetDue(t *testing.T) {
	db := notifierTestDB(t, "notifier_due")
	sender := &flakySender{failures: 100}
	n := NewNotifier(db, sender)
	n.Backoff = time.Hour

	notif := models.Notification{
		Recipient: "+15551234567",
		Body:      "test",
		Kind:      models.NotifyStatusUpdate,
		Status:    models.NotificationPending,
	}
	require.NoError(t, db.Create(&notif).Error)

	n.deliver(notif.ID)
	n.sweep()
	assert.Equal(t, 1, sender.calls, "a backed-off row must not be retried early")
}

// selectiveSender fails only for one recipient.
type selectiveSender struct {
	mu     sync.Mutex
	failTo string
}

func (ss *selectiveSender) Send(to, body string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if to == ss.failTo {
		return errors.New("carrier rejected")
	}
	return nil
}

func TestFailingSendDoesNotBlockQueue(t *testing.T) {
	db := notifierTestDB(t, "notifier_headofline")
	sender := &selectiveSender{failTo: "+15550000001"}
	n := NewNotifier(db, sender)
	n.Backoff = time.Hour
	n.Start()
	defer n.Stop()

	bad := models.Notification{
		Recipient: "+15550000001", Body: "x", Kind: models.NotifyStatusUpdate,
	}
	good := models.Notification{
		Recipient: "+15550000002", Body: "y", Kind: models.NotifyStatusUpdate,
	}
	n.Enqueue(&bad)
	n.Enqueue(&good)

	deadline := time.Now().Add(2 * time.Second)
	var out models.Notification
	for time.Now().Before(deadline) {
		if db.First(&out, good.ID).Error == nil &&
			out.Status == models.NotificationSent {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, models.NotificationSent, out.Status,
		"a failing recipient must not delay the rest of the queue")
}

func TestDeliverSkipsAlreadySent(t *testing.T) {
	db := notifierTestDB(t, "notifier_skip")
	sender := &flakySender{}
	n := NewNotifier(db, sender)

	now := time.Now()
	notif := models.Notification{
		Recipient: "+15551234567",
		Body:      "test",
		Kind:      models.NotifyPaymentReceipt,
		Status:    models.NotificationSent,
		SentAt:    &now,
	}
	require.NoError(t, db.Create(&notif).Error)

	n.deliver(notif.ID)
	assert.Zero(t, sender.calls, "a sent notification must not be re-delivered")
}

func TestSweepRequeuesPendingRows(t *testing.T) {
	db := notifierTestDB(t, "notifier_sweep")
	sender := &flakySender{}
	n := NewNotifier(db, sender)
	n.Backoff = time.Millisecond

	// Rows persisted while no worker was running, as after a crash.
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Notification{
			Recipient: "+15551234567",
			Body:      "queued",
			Kind:      models.NotifyStatusUpdate,
			Status:    models.NotificationPending,
		}).Error)
	}

	n.sweep()

	var sent int64
	db.Model(&models.Notification{}).
		Where("status = ?", models.NotificationSent).Count(&sent)
	assert.EqualValues(t, 3, sent)
}

func TestEnqueuePersistsBeforeDispatch(t *testing.T) {
	db := notifierTestDB(t, "notifier_enqueue")
	n := NewNotifier(db, &flakySender{})

	// Worker intentionally not started: the row must exist regardless.
	n.Enqueue(&models.Notification{
		Recipient: "+15551234567",
		Body:      "hello",
		Kind:      models.NotifyOrderConfirmation,
	})

	var out models.Notification
	require.NoError(t, db.First(&out).Error)
	assert.Equal(t, models.NotificationPending, out.Status)
}

func TestMessageTemplates(t *testing.T) {
	order := &models.Order{
		Status:               models.OrderReady,
		Total:                27.00,
		EstimatedPrepMinutes: 20,
		TableID:              3,
		AllergenSummary: models.AllergenSummary{
			AvoidAllergens:          models.StringList{"peanuts"},
			DietaryPreferences:      models.StringList{"vegan"},
			SpecialInstructionCount: 1,
		},
	}
	order.ID = 7

	assert.Contains(t, OrderConfirmationBody(order, "Testaurant"), "order #7")
	assert.Contains(t, OrderConfirmationBody(order, "Testaurant"), "20 minutes")
	assert.Contains(t, AllergenAlertBody(order), "peanuts")
	assert.Contains(t, StatusUpdateBody(order, "Testaurant"), "ready")
	assert.Contains(t, PaymentReceiptBody(order, "Testaurant"), "27.00")

	entry := &models.WaitingListEntry{PartySize: 4}
	assert.Contains(t, WaitlistReadyBody(entry, "Testaurant"), "table for 4")
}
