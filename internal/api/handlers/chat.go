package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/24021959/guidebook-backend/internal/chatbot"
	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

type ChatHandler struct {
	service       *chatbot.Service
	settings      models.SettingRepository
	conversations models.ConversationRepository
	logger        *logrus.Logger
}

func NewChatHandler(service *chatbot.Service, settings models.SettingRepository, conversations models.ConversationRepository, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		service:       service,
		settings:      settings,
		conversations: conversations,
		logger:        logger,
	}
}

// HandleChat answers one guest message
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid chat request", err)
		return
	}

	if len(req.Message) > 2000 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Message too long (max 2000 characters)", nil)
		return
	}

	if req.SessionID == "" {
		// Basic fingerprinting keeps anonymous widget sessions stable.
		req.SessionID = utils.GenerateSessionID(c.ClientIP() + c.GetHeader("User-Agent"))
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	response := h.service.Answer(ctx, req)

	h.logger.WithFields(logrus.Fields{
		"session":       response.SessionID,
		"language":      response.Language,
		"grounded":      response.Grounded,
		"response_time": response.ResponseTime,
	}).Info("Chat message answered")

	utils.SuccessResponse(c, http.StatusOK, "Chat completed", response)
}

// HandleChatConfig serves the widget configuration stored under the
// "chatbot" setting. A missing setting yields the enabled default so the
// widget works before the admin ever touches it.
func (h *ChatHandler) HandleChatConfig(c *gin.Context) {
	config := models.ChatbotConfig{
		Enabled:  true,
		BotName:  "Assistente",
		Position: "bottom-right",
	}

	setting, err := h.settings.Get("chatbot")
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			h.logger.WithError(err).Error("Failed to load chatbot config")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load chatbot config", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Chatbot config retrieved", config)
		return
	}

	raw, err := json.Marshal(setting.Value)
	if err == nil {
		err = json.Unmarshal(raw, &config)
	}
	if err != nil {
		h.logger.WithError(err).Error("Malformed chatbot config setting")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Malformed chatbot config", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chatbot config retrieved", config)
}

// HandleFeedback records whether a bot reply helped, with an optional
// corrected reply from the admin
func (h *ChatHandler) HandleFeedback(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid conversation id", err)
		return
	}

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feedback format", err)
		return
	}
	if req.Helpful == nil && req.CorrectedResponse == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Feedback requires 'helpful' or 'corrected_response'", nil)
		return
	}

	if req.Helpful != nil {
		if err := h.conversations.SetHelpful(uint(id), *req.Helpful); err != nil {
			h.logger.WithError(err).Error("Failed to save feedback")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save feedback", err)
			return
		}
	}
	if req.CorrectedResponse != "" {
		if err := h.conversations.SetCorrection(uint(id), req.CorrectedResponse); err != nil {
			h.logger.WithError(err).Error("Failed to save correction")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save correction", err)
			return
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback recorded", nil)
}

// HandleConversations lists recent chatbot exchanges for review
func (h *ChatHandler) HandleConversations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	conversations, err := h.conversations.GetRecent(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list conversations")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list conversations", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Conversations retrieved", conversations)
}
