package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

// setupTestDB opens a named in-memory database. Each test uses its own name
// so state never leaks between tests.
func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.OperatingHour{},
		&models.Table{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.ReviewReply{},
		&models.ServiceRequest{},
		&models.WaitingListEntry{},
		&models.ChatMessage{},
		&models.Notification{},
	))
	return db
}

// seedRestaurant creates a tenant with one table and two menu items priced
// 10.00 and 15.00.
func seedRestaurant(t *testing.T, db *gorm.DB) (models.Restaurant, models.Table, []models.MenuItem) {
	t.Helper()

	restaurant := models.Restaurant{
		Name:                 "Testaurant",
		Phone:                "+15550001111",
		Active:               true,
		TaxRate:              0.08,
		PaymentsEnabled:      true,
		NotificationsEnabled: true,
	}
	require.NoError(t, db.Create(&restaurant).Error)

	table := models.Table{
		RestaurantID: restaurant.ID,
		TableNumber:  "T1",
		Capacity:     4,
		Status:       models.TableAvailable,
		Phase:        models.PhaseWaiting,
	}
	require.NoError(t, db.Create(&table).Error)

	items := []models.MenuItem{
		{RestaurantID: restaurant.ID, Name: "Margherita", Price: 10.00,
			Category: "pizza", Available: true, Allergens: models.StringList{"gluten", "dairy"}},
		{RestaurantID: restaurant.ID, Name: "Caesar Salad", Price: 15.00,
			Category: "salads", Available: true},
	}
	require.NoError(t, db.Create(&items).Error)

	return restaurant, table, items
}

// asStaff injects the auth context a logged-in staff member would carry.
func asStaff(restaurantID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("role", models.RoleStaff)
		c.Set("restaurant_id", restaurantID)
		c.Next()
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// doJSON performs a request with a JSON body and returns the recorder.
func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newRecorderFor(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
