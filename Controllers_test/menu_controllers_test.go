package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/controllers"
	"github.com/tablescan/qrorder-app/models"
)

func setupMenuRouter(db *gorm.DB, restaurantID uint) *gin.Engine {
	router := newTestRouter()
	menuCtrl := controllers.NewMenuController(db)
	router.GET("/menu/restaurant/:restaurant_id", menuCtrl.GetRestaurantMenu)

	staff := router.Group("", asStaff(restaurantID))
	staff.GET("/menu", menuCtrl.ListMenu)
	staff.POST("/menu", menuCtrl.CreateMenuItem)
	staff.GET("/menu/:item_id", menuCtrl.GetMenuItem)
	staff.PATCH("/menu/:item_id", menuCtrl.UpdateMenuItem)
	staff.DELETE("/menu/:item_id", menuCtrl.DeleteMenuItem)
	return router
}

func TestMenuCRUD(t *testing.T) {
	db := setupTestDB(t, "menu_crud")
	restaurant, _, _ := seedRestaurant(t, db)
	router := setupMenuRouter(db, restaurant.ID)

	w := doJSON(t, router, "POST", "/menu", map[string]interface{}{
		"name":      "Tiramisu",
		"price":     7.5,
		"category":  "desserts",
		"allergens": []string{"dairy", "eggs"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item models.MenuItem
	require.NoError(t, db.Where("name = ?", "Tiramisu").First(&item).Error)
	assert.True(t, item.Available)
	assert.Equal(t, models.StringList{"dairy", "eggs"}, item.Allergens)

	w = doJSON(t, router, "PATCH", fmt.Sprintf("/menu/%d", item.ID),
		map[string]interface{}{"price": 8.0, "available": false})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&item, item.ID).Error)
	assert.Equal(t, 8.0, item.Price)
	assert.False(t, item.Available)
	assert.Equal(t, "Tiramisu", item.Name, "untouched fields must survive a partial update")

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/menu/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ErrorIs(t, db.First(&item, item.ID).Error, gorm.ErrRecordNotFound)
}

func TestPublicMenuHidesUnavailable(t *testing.T) {
	db := setupTestDB(t, "menu_public")
	restaurant, _, items := seedRestaurant(t, db)
	require.NoError(t, db.Model(&items[1]).Update("available", false).Error)
	router := setupMenuRouter(db, restaurant.ID)

	w := doJSON(t, router, "GET",
		fmt.Sprintf("/menu/restaurant/%d", restaurant.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	data := resp["data"].([]interface{})
	assert.Len(t, data, 1)

	// Staff listing still shows everything.
	w = doJSON(t, router, "GET", "/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody(t, w)
	assert.Len(t, resp["data"].([]interface{}), 2)
}

func TestMenuTenantScoping(t *testing.T) {
	db := setupTestDB(t, "menu_tenant")
	restaurant, _, items := seedRestaurant(t, db)

	other := models.Restaurant{Name: "Other Place", Active: true, TaxRate: 0.08}
	require.NoError(t, db.Create(&other).Error)

	// Acting as the other tenant's staff.
	router := setupMenuRouter(db, other.ID)
	w := doJSON(t, router, "GET", fmt.Sprintf("/menu/%d", items[0].ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code,
		"one tenant must not see another tenant's items")

	router = setupMenuRouter(db, restaurant.ID)
	w = doJSON(t, router, "GET", fmt.Sprintf("/menu/%d", items[0].ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
