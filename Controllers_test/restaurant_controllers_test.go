package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/controllers"
	"github.com/tablescan/qrorder-app/models"
)

func setupRestaurantRouter(db *gorm.DB, restaurantID uint) *gin.Engine {
	router := newTestRouter()
	restaurantCtrl := controllers.NewRestaurantController(db)
	router.GET("/restaurants/:restaurant_id", restaurantCtrl.GetRestaurant)

	admin := router.Group("/restaurants/me", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("role", models.RoleAdmin)
		c.Set("restaurant_id", restaurantID)
		c.Next()
	})
	admin.GET("", restaurantCtrl.GetMyRestaurant)
	admin.PATCH("", restaurantCtrl.UpdateMyRestaurant)
	admin.PUT("/hours", restaurantCtrl.SetOperatingHours)
	admin.POST("/staff", restaurantCtrl.CreateStaff)
	admin.GET("/staff", restaurantCtrl.ListStaff)
	admin.GET("/stats", restaurantCtrl.GetDashboardStats)
	admin.GET("/sales.csv", restaurantCtrl.ExportSalesCSV)
	return router
}

func TestUpdateRestaurantSettings(t *testing.T) {
	db := setupTestDB(t, "restaurant_update")
	restaurant, _, _ := seedRestaurant(t, db)
	router := setupRestaurantRouter(db, restaurant.ID)

	w := doJSON(t, router, "PATCH", "/restaurants/me", map[string]interface{}{
		"tax_rate":         0.095,
		"payments_enabled": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Restaurant
	require.NoError(t, db.First(&updated, restaurant.ID).Error)
	assert.Equal(t, 0.095, updated.TaxRate)
	assert.False(t, updated.PaymentsEnabled)
	assert.Equal(t, restaurant.Name, updated.Name)

	w = doJSON(t, router, "PATCH", "/restaurants/me",
		map[string]interface{}{"tax_rate": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetOperatingHours(t *testing.T) {
	db := setupTestDB(t, "restaurant_hours")
	restaurant, _, _ := seedRestaurant(t, db)
	router := setupRestaurantRouter(db, restaurant.ID)

	w := doJSON(t, router, "PUT", "/restaurants/me/hours", map[string]interface{}{
		"hours": []map[string]interface{}{
			{"weekday": 1, "opens_at": "11:00", "closes_at": "22:00"},
			{"weekday": 0, "closed": true},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var hours []models.OperatingHour
	require.NoError(t, db.Where("restaurant_id = ?", restaurant.ID).
		Order("weekday").Find(&hours).Error)
	require.Len(t, hours, 2)
	assert.True(t, hours[0].Closed)
	assert.Equal(t, "11:00", hours[1].OpensAt)

	// Replacing wipes the previous schedule.
	w = doJSON(t, router, "PUT", "/restaurants/me/hours", map[string]interface{}{
		"hours": []map[string]interface{}{
			{"weekday": 2, "opens_at": "09:00", "closes_at": "17:00"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.Where("restaurant_id = ?", restaurant.ID).Find(&hours).Error)
	assert.Len(t, hours, 1)

	// Malformed clock values are rejected.
	w = doJSON(t, router, "PUT", "/restaurants/me/hours", map[string]interface{}{
		"hours": []map[string]interface{}{
			{"weekday": 3, "opens_at": "9am", "closes_at": "late"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStaffScopedToTenant(t *testing.T) {
	db := setupTestDB(t, "restaurant_staff")
	restaurant, _, _ := seedRestaurant(t, db)
	router := setupRestaurantRouter(db, restaurant.ID)

	w := doJSON(t, router, "POST", "/restaurants/me/staff", map[string]string{
		"name":     "Kim Kitchen",
		"email":    "kim@testaurant.test",
		"password": "longenough1",
		"role":     models.RoleStaff,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var staff models.User
	require.NoError(t, db.Where("email = ?", "kim@testaurant.test").First(&staff).Error)
	require.NotNil(t, staff.RestaurantID)
	assert.Equal(t, restaurant.ID, *staff.RestaurantID)

	// Superadmin cannot be minted from a tenant dashboard.
	w = doJSON(t, router, "POST", "/restaurants/me/staff", map[string]string{
		"name":     "Evil",
		"email":    "evil@testaurant.test",
		"password": "longenough1",
		"role":     models.RoleSuperadmin,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardStatsAndCSVExport(t *testing.T) {
	db := setupTestDB(t, "restaurant_dashboard")
	restaurant, table, _ := seedRestaurant(t, db)
	order := seedOrder(t, db, restaurant, table)
	require.NoError(t, db.Model(&order).
		Update("payment_status", models.PaymentCompleted).Error)
	router := setupRestaurantRouter(db, restaurant.ID)

	w := doJSON(t, router, "GET", "/restaurants/me/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["open_orders"])
	assert.EqualValues(t, 27.00, data["today_revenue"])
	assert.EqualValues(t, 1, data["total_tables"])

	w = doJSON(t, router, "GET", "/restaurants/me/sales.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "order_id,created_at")
	assert.Contains(t, w.Body.String(), "27.00")

	w = doJSON(t, router, "GET", "/restaurants/me/sales.csv?from=notadate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
