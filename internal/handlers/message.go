package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/logger"
	"social-chat-service/internal/models"
	"social-chat-service/internal/observability"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
	"social-chat-service/internal/ws"
)

// MessageHandler manages direct message history and sends.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	friendRepo  repositories.FriendRepository
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, friendRepo repositories.FriendRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo, friendRepo: friendRepo, hub: hub, audit: audit}
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

// GetConversation returns the full history with a friend, oldest first.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	friendID, ok := h.authorizedFriend(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.ListConversation(c.Request.Context(), userID, friendID)
	if err != nil {
		logger.Log.Errorf("conversation load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message and broadcasts it to the conversation room.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	friendID, ok := h.authorizedFriend(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), userID, friendID, req.Content)
	if err != nil {
		logger.Log.Errorf("message insert failed: %v", err)
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	observability.IncMessageStored()
	h.hub.BroadcastMessage(ws.ConversationRoom(userID, friendID), msg)
	h.emitAudit(c, "INFO", "Message sent")
	c.JSON(http.StatusCreated, msg)
}

// authorizedFriend parses the friend id and verifies the caller is friends
// with them.
func (h *MessageHandler) authorizedFriend(c *gin.Context) (int, bool) {
	friendID, err := strconv.Atoi(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return 0, false
	}

	userID := c.GetInt("userID")
	friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, friendID)
	if err != nil {
		logger.Log.Errorf("friendship check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify friendship"})
		return 0, false
	}
	if !friends {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return 0, false
	}
	return friendID, true
}
