package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/events"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

type ServiceController struct {
	DB *gorm.DB
}

func NewServiceController(db *gorm.DB) *ServiceController {
	return &ServiceController{DB: db}
}

// CreateServiceRequest -> a customer at a table calls for service. Public,
// reached from the table page after a QR scan.
func (sc *ServiceController) CreateServiceRequest(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		TableID      uint   `json:"table_id" binding:"required"`
		Type         string `json:"type" binding:"required"`
		Note         string `json:"note"`
		Priority     string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidServiceType(req.Type) {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("unknown service request type %q", req.Type))
		return
	}

	var table models.Table
	if err := sc.DB.Where("restaurant_id = ?", req.RestaurantID).
		First(&table, req.TableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}

	request := models.ServiceRequest{
		RestaurantID: req.RestaurantID,
		TableID:      table.ID,
		Type:         req.Type,
		Note:         req.Note,
		Status:       models.ServicePending,
		Priority:     models.PriorityNormal,
	}
	if req.Priority == models.PriorityLow || req.Priority == models.PriorityHigh {
		request.Priority = req.Priority
	}

	if err := sc.DB.Create(&request).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	events.BroadcastServiceRequest(request)
	utils.RespondJSON(c, http.StatusCreated, "Service request created", request)
}

// ListServiceRequests -> staff queue, newest first, filterable by status.
func (sc *ServiceController) ListServiceRequests(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	query := sc.DB.Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.ServiceRequest
	if err := query.Order("created_at desc").Find(&requests).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Service requests", requests)
}

// UpdateServiceRequest moves a request through its queue and optionally
// assigns it to the acting staff member.
func (sc *ServiceController) UpdateServiceRequest(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Status   string `json:"status" binding:"required"`
		AssignMe bool   `json:"assign_me"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidServiceStatus(req.Status) {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("unknown service request status %q", req.Status))
		return
	}

	var request models.ServiceRequest
	if err := sc.DB.Where("restaurant_id = ?", restaurantID).
		First(&request, c.Param("service_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	request.Status = req.Status
	if req.AssignMe {
		userID := userIDFromCtx(c)
		request.AssignedTo = &userID
	}
	if req.Status == models.ServiceCompleted {
		now := time.Now()
		request.CompletedAt = &now
	}

	if err := sc.DB.Save(&request).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	events.BroadcastServiceRequest(request)
	if req.AssignMe {
		events.BroadcastStaffNotice(restaurantID,
			fmt.Sprintf("Service request #%d (%s) claimed", request.ID, request.Type))
	}
	utils.RespondJSON(c, http.StatusOK, "Service request updated", request)
}
