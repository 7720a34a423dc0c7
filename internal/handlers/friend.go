package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/logger"
	"social-chat-service/internal/models"
	"social-chat-service/internal/observability"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
)

// FriendHandler manages the friend request lifecycle and friend lists.
type FriendHandler struct {
	friendRepo repositories.FriendRepository
	audit      *telemetry.AuditEmitter
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friendRepo repositories.FriendRepository, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friendRepo: friendRepo, audit: audit}
}

func (h *FriendHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

// SendRequest inserts a pending request from the caller.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		ToUserID int `json:"to_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := c.GetInt("userID")
	if userID == req.ToUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot send a friend request to yourself"})
		return
	}

	friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, req.ToUserID)
	if err != nil {
		logger.Log.Errorf("friendship check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send friend request"})
		return
	}
	if friends {
		c.JSON(http.StatusConflict, gin.H{"error": "you are already friends"})
		return
	}

	pending, err := h.friendRepo.HasRequestBetween(c.Request.Context(), userID, req.ToUserID)
	if err != nil {
		logger.Log.Errorf("request check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send friend request"})
		return
	}
	if pending {
		c.JSON(http.StatusConflict, gin.H{"error": "a friend request already exists between you"})
		return
	}

	request, err := h.friendRepo.CreateRequest(c.Request.Context(), userID, req.ToUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateRequest) {
			c.JSON(http.StatusConflict, gin.H{"error": "a friend request already exists between you"})
			return
		}
		logger.Log.Errorf("friend request insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send friend request"})
		return
	}

	observability.IncFriendRequest("send")
	h.emitAudit(c, "INFO", "Friend request sent")
	c.JSON(http.StatusCreated, request)
}

// CancelRequest deletes a request the caller sent. The sender check lives in
// the delete predicate; anyone else gets a 404.
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if err := h.friendRepo.CancelRequest(c.Request.Context(), requestID, userID); err != nil {
		h.auditRequestError(c, err)
		respondRequestError(c, err, "could not cancel friend request")
		return
	}

	observability.IncFriendRequest("cancel")
	h.emitAudit(c, "INFO", "Friend request cancelled")
	c.Status(http.StatusNoContent)
}

// AcceptRequest transitions the request to accepted and creates the
// friendship in one transaction. Recipient only.
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	var req struct {
		FromUserID int `json:"from_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := c.GetInt("userID")
	if err := h.friendRepo.AcceptRequest(c.Request.Context(), requestID, req.FromUserID, userID); err != nil {
		h.auditRequestError(c, err)
		respondRequestError(c, err, "could not accept friend request")
		return
	}

	observability.IncFriendRequest("accept")
	h.emitAudit(c, "INFO", "Friend request accepted")
	c.JSON(http.StatusOK, gin.H{"status": models.RequestStatusAccepted})
}

// DeclineRequest deletes the request. Recipient only; no declined row is
// retained.
func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	var req struct {
		FromUserID int `json:"from_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := c.GetInt("userID")
	if err := h.friendRepo.DeclineRequest(c.Request.Context(), requestID, req.FromUserID, userID); err != nil {
		h.auditRequestError(c, err)
		respondRequestError(c, err, "could not decline friend request")
		return
	}

	observability.IncFriendRequest("decline")
	h.emitAudit(c, "INFO", "Friend request declined")
	c.Status(http.StatusNoContent)
}

// ListIncoming returns pending requests addressed to the caller.
func (h *FriendHandler) ListIncoming(c *gin.Context) {
	userID := c.GetInt("userID")
	requests, err := h.friendRepo.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		logger.Log.Errorf("incoming request list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load requests"})
		return
	}
	if requests == nil {
		requests = []models.RequestSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListOutgoing returns requests the caller has sent.
func (h *FriendHandler) ListOutgoing(c *gin.Context) {
	userID := c.GetInt("userID")
	requests, err := h.friendRepo.ListOutgoing(c.Request.Context(), userID)
	if err != nil {
		logger.Log.Errorf("outgoing request list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load requests"})
		return
	}
	if requests == nil {
		requests = []models.RequestSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListFriends returns the caller's friends, both directions of the relation.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := c.GetInt("userID")
	friends, err := h.friendRepo.ListFriends(c.Request.Context(), userID)
	if err != nil {
		logger.Log.Errorf("friend list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load friends"})
		return
	}
	if friends == nil {
		friends = []models.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendHandler) auditRequestError(c *gin.Context, err error) {
	if errors.Is(err, repositories.ErrRequestNotFound) {
		h.emitAudit(c, "ERROR", "friend request not found")
		return
	}
	h.emitAudit(c, "ERROR", "internal error")
}

func parseRequestID(c *gin.Context) (int, bool) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return 0, false
	}
	return requestID, true
}

func respondRequestError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, repositories.ErrRequestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "friend request not found"})
		return
	}
	logger.Log.Errorf("%s: %v", fallback, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
