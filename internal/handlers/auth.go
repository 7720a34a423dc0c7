package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/auth"
	"social-chat-service/internal/logger"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
)

// AuthHandler manages registration, login, token refresh and the
// current-user endpoint.
type AuthHandler struct {
	profileRepo repositories.ProfileRepository
	tokens      *auth.TokenManager
	audit       *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(profileRepo repositories.ProfileRepository, tokens *auth.TokenManager, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{profileRepo: profileRepo, tokens: tokens, audit: audit}
}

func (h *AuthHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

// Register creates a profile with its credentials in a single insert, so a
// half-registered account cannot exist.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username        string `json:"username" binding:"required,min=3,max=32"`
		Email           string `json:"email" binding:"required,email"`
		Password        string `json:"password" binding:"required,min=8"`
		ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process password"})
		return
	}

	profile, err := h.profileRepo.CreateProfile(c.Request.Context(), username, email, hash)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "validation failed", "fields": gin.H{"username": []string{"is already taken"}}})
		case errors.Is(err, repositories.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "validation failed", "fields": gin.H{"email": []string{"is already registered"}}})
		default:
			logger.Log.Errorf("register failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		}
		return
	}

	c.Set("userID", profile.ID)
	h.emitAudit(c, "INFO", "user registered")
	c.JSON(http.StatusCreated, gin.H{"user": profile})
}

// Login verifies credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	cred, err := h.profileRepo.GetCredentialByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "the email or password you entered is incorrect"})
			return
		}
		logger.Log.Errorf("login lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	if !auth.CheckPassword(req.Password, cred.PasswordHash) {
		h.emitAudit(c, "ERROR", "sign-in rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "the email or password you entered is incorrect"})
		return
	}

	accessToken, refreshToken, err := h.issueTokenPair(cred.ID)
	if err != nil {
		logger.Log.Errorf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	c.Set("userID", cred.ID)
	h.emitAudit(c, "INFO", "user signed in")
	c.JSON(http.StatusOK, gin.H{"user": cred.Profile, "access_token": accessToken, "refresh_token": refreshToken})
}

// Refresh exchanges a valid refresh token for a new token pair. Tokens are
// stateless, so the old pair simply ages out instead of being revoked.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID, err := h.tokens.ValidateRefresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	if _, err := h.profileRepo.GetProfile(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		logger.Log.Errorf("refresh lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh session"})
		return
	}

	accessToken, refreshToken, err := h.issueTokenPair(userID)
	if err != nil {
		logger.Log.Errorf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh session"})
		return
	}

	c.Set("userID", userID)
	h.emitAudit(c, "INFO", "session refreshed")
	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "refresh_token": refreshToken})
}

// Logout ends the session from the server's point of view. Tokens being
// stateless, the client discards them; the call exists to give sign-out an
// audit trail.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.emitAudit(c, "INFO", "user signed out")
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *AuthHandler) issueTokenPair(userID int) (string, string, error) {
	accessToken, err := h.tokens.Issue(userID)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := h.tokens.IssueRefresh(userID)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")

	profile, err := h.profileRepo.GetProfile(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}
