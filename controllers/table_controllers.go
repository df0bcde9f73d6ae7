package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/events"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/services"
	"github.com/tablescan/qrorder-app/utils"
)

type TableController struct {
	DB *gorm.DB
	// FrontendBaseURL anchors the URLs encoded in table QR codes.
	FrontendBaseURL string
}

func NewTableController(db *gorm.DB, frontendBaseURL string) *TableController {
	return &TableController{DB: db, FrontendBaseURL: frontendBaseURL}
}

// ListTables -> floor view for staff.
func (tc *TableController) ListTables(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var tables []models.Table
	if err := tc.DB.Where("restaurant_id = ?", restaurantID).
		Order("table_number").Find(&tables).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables", tables)
}

// CreateTable registers a table and assigns its QR payload.
func (tc *TableController) CreateTable(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
		Capacity    int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		RestaurantID: restaurantID,
		TableNumber:  req.TableNumber,
		Capacity:     2,
		Status:       models.TableAvailable,
		Phase:        models.PhaseWaiting,
	}
	if req.Capacity > 0 {
		table.Capacity = req.Capacity
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("table number already exists"))
		return
	}

	// The payload embeds the table id, so it is set after the insert.
	table.QRPayload = services.BuildTableQRPayload(tc.FrontendBaseURL, restaurantID, table.ID)
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %s created (restaurant=%d)", table.TableNumber, restaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// UpdateTable changes status, phase or capacity. Status and phase values are
// validated against the fixed vocabularies.
func (tc *TableController) UpdateTable(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var table models.Table
	if err := tc.DB.Where("restaurant_id = ?", restaurantID).
		First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Status   *string `json:"status"`
		Phase    *string `json:"phase"`
		Capacity *int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Status != nil {
		if !models.ValidTableStatus(*req.Status) {
			utils.RespondError(c, http.StatusBadRequest,
				fmt.Errorf("unknown table status %q", *req.Status))
			return
		}
		table.Status = *req.Status
	}
	if req.Phase != nil {
		if !models.ValidTablePhase(*req.Phase) {
			utils.RespondError(c, http.StatusBadRequest,
				fmt.Errorf("unknown table phase %q", *req.Phase))
			return
		}
		table.Phase = *req.Phase
	}
	if req.Capacity != nil && *req.Capacity > 0 {
		table.Capacity = *req.Capacity
	}

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	events.BroadcastTableUpdate(table)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// MarkTableClean closes the cleaning cycle and frees the table.
func (tc *TableController) MarkTableClean(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var table models.Table
	if err := tc.DB.Where("restaurant_id = ?", restaurantID).
		First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.Status != models.TableCleaning {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("table is %s, not cleaning", table.Status))
		return
	}

	table.Status = models.TableAvailable
	table.Phase = models.PhaseWaiting
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	events.BroadcastTableUpdate(table)
	utils.RespondJSON(c, http.StatusOK, "Table marked clean", table)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var table models.Table
	if err := tc.DB.Where("restaurant_id = ?", restaurantID).
		First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var openOrders int64
	tc.DB.Model(&models.Order{}).
		Where("table_id = ? AND status NOT IN ?", table.ID,
			[]string{models.OrderCompleted, models.OrderCancelled}).
		Count(&openOrders)
	if openOrders > 0 {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("table has open orders"))
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}

// ScanTable -> public landing data after a QR scan: the restaurant profile
// plus the table the customer is seated at.
func (tc *TableController) ScanTable(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var restaurant models.Restaurant
	if err := tc.DB.Where("active = ?", true).
		First(&restaurant, table.RestaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table scanned", gin.H{
		"table": gin.H{
			"id":           table.ID,
			"table_number": table.TableNumber,
			"capacity":     table.Capacity,
			"status":       table.Status,
		},
		"restaurant": gin.H{
			"id":      restaurant.ID,
			"name":    restaurant.Name,
			"address": restaurant.Address,
		},
	})
}

// GetTableQR serves the table's QR code as a PNG, for printing.
func (tc *TableController) GetTableQR(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	payload := table.QRPayload
	if payload == "" {
		payload = services.BuildTableQRPayload(tc.FrontendBaseURL, table.RestaurantID, table.ID)
	}

	png, err := services.GenerateQRPNG(payload)
	if err != nil {
		utils.RespondInternal(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
