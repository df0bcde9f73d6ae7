package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/services"
	"github.com/tablescan/qrorder-app/utils"
)

type ChatController struct {
	DB      *gorm.DB
	Gateway *services.ChatGateway
}

func NewChatController(db *gorm.DB, gateway *services.ChatGateway) *ChatController {
	return &ChatController{DB: db, Gateway: gateway}
}

// chatHistoryLimit bounds how many prior turns are replayed to the model.
const chatHistoryLimit = 20

// SendChatMessage runs one turn of the menu assistant. The session id groups
// turns; omitting it starts a new session.
func (cc *ChatController) SendChatMessage(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		TableID      uint   `json:"table_id"`
		SessionID    string `json:"session_id"`
		Message      string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var restaurant models.Restaurant
	if err := cc.DB.Where("active = ?", true).First(&restaurant, req.RestaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var history []models.ChatMessage
	cc.DB.Where("restaurant_id = ? AND session_id = ?", restaurant.ID, sessionID).
		Order("created_at desc").Limit(chatHistoryLimit).Find(&history)

	turns := make([]services.ChatTurn, 0, len(history)+2)
	turns = append(turns, services.ChatTurn{
		Role:    "system",
		Content: cc.menuPrompt(&restaurant),
	})
	for i := len(history) - 1; i >= 0; i-- {
		turns = append(turns, services.ChatTurn{
			Role:    history[i].Role,
			Content: history[i].Content,
		})
	}
	turns = append(turns, services.ChatTurn{Role: models.ChatRoleUser, Content: req.Message})

	answer, err := cc.Gateway.Complete(turns)
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, fmt.Errorf("chat completion: %w", err))
		return
	}

	cc.DB.Create(&models.ChatMessage{
		RestaurantID: restaurant.ID,
		TableID:      req.TableID,
		SessionID:    sessionID,
		Role:         models.ChatRoleUser,
		Content:      req.Message,
	})
	cc.DB.Create(&models.ChatMessage{
		RestaurantID: restaurant.ID,
		TableID:      req.TableID,
		SessionID:    sessionID,
		Role:         models.ChatRoleAssistant,
		Content:      answer,
	})

	utils.RespondJSON(c, http.StatusOK, "Chat reply", gin.H{
		"session_id": sessionID,
		"reply":      answer,
	})
}

// GetChatHistory returns a session's turns in order.
func (cc *ChatController) GetChatHistory(c *gin.Context) {
	var messages []models.ChatMessage
	if err := cc.DB.Where("session_id = ?", c.Param("session_id")).
		Order("created_at").Find(&messages).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Chat history", messages)
}

// menuPrompt grounds the assistant in the restaurant's current menu so it
// answers about real dishes, prices and allergens.
func (cc *ChatController) menuPrompt(restaurant *models.Restaurant) string {
	var items []models.MenuItem
	cc.DB.Where("restaurant_id = ? AND available = ?", restaurant.ID, true).
		Order("category, name").Find(&items)

	var b strings.Builder
	fmt.Fprintf(&b, "You are the menu assistant for %s. Answer questions about the menu, "+
		"ingredients and allergens. Be concise. If asked something unrelated to dining "+
		"here, politely decline.\n\nMenu:\n", restaurant.Name)
	for _, it := range items {
		fmt.Fprintf(&b, "- %s (%s): %.2f", it.Name, it.Category, it.Price)
		if len(it.Allergens) > 0 {
			fmt.Fprintf(&b, " [allergens: %s]", strings.Join(it.Allergens, ", "))
		}
		if it.Description != "" {
			fmt.Fprintf(&b, " - %s", it.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}
