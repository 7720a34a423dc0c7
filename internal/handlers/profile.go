package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/auth"
	"social-chat-service/internal/logger"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/storage"
)

const defaultSearchLimit = 4

// ProfileHandler manages profile mutations and user search.
type ProfileHandler struct {
	profileRepo repositories.ProfileRepository
	avatars     storage.AvatarStore
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profileRepo repositories.ProfileRepository, avatars storage.AvatarStore) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo, avatars: avatars}
}

// Search finds users matching the query who have no existing request or
// friendship with the caller.
func (h *ProfileHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"users": []struct{}{}})
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	userID := c.GetInt("userID")
	profiles, err := h.profileRepo.SearchStrangers(c.Request.Context(), userID, query, limit)
	if err != nil {
		logger.Log.Errorf("user search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

// UpdateUsername changes the caller's username.
func (h *ProfileHandler) UpdateUsername(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := c.GetInt("userID")
	err := h.profileRepo.UpdateUsername(c.Request.Context(), userID, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "validation failed", "fields": gin.H{"username": []string{"is already taken"}}})
			return
		}
		logger.Log.Errorf("username update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update username"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "username updated"})
}

// UpdateEmail changes the caller's email.
func (h *ProfileHandler) UpdateEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := c.GetInt("userID")
	err := h.profileRepo.UpdateEmail(c.Request.Context(), userID, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "validation failed", "fields": gin.H{"email": []string{"is already registered"}}})
			return
		}
		logger.Log.Errorf("email update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email updated"})
}

// UpdatePassword re-authenticates with the current password before storing a
// new hash.
func (h *ProfileHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		CurrentPassword    string `json:"current_password" binding:"required"`
		NewPassword        string `json:"new_password" binding:"required,min=8"`
		ConfirmNewPassword string `json:"confirm_new_password" binding:"required,eqfield=NewPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := c.GetInt("userID")
	cred, err := h.profileRepo.GetCredential(c.Request.Context(), userID)
	if err != nil {
		logger.Log.Errorf("credential lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update password"})
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, cred.PasswordHash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": gin.H{"current_password": []string{"is incorrect"}}})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update password"})
		return
	}

	if err := h.profileRepo.UpdatePassword(c.Request.Context(), userID, hash); err != nil {
		logger.Log.Errorf("password update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// UploadAvatar stores the image in object storage, persists the signed URL on
// the profile and returns it.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	switch ext {
	case "png", "jpg", "jpeg", "gif", "webp":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read avatar file"})
		return
	}
	defer file.Close()

	userID := c.GetInt("userID")
	url, err := h.avatars.Upload(c.Request.Context(), userID, ext, file)
	if err != nil {
		if errors.Is(err, storage.ErrStorageDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage is not available"})
			return
		}
		logger.Log.Errorf("avatar upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not upload avatar"})
		return
	}

	if err := h.profileRepo.UpdateAvatarURL(c.Request.Context(), userID, url); err != nil {
		logger.Log.Errorf("avatar url update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save avatar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
