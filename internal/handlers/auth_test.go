package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-chat-service/internal/auth"
	"social-chat-service/internal/mocks"
	"social-chat-service/internal/models"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
)

func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.Refresh)
	authed := func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	}
	r.GET("/auth/me", authed, handler.Me)
	r.POST("/auth/logout", authed, handler.Logout)
	return r
}

func TestRegisterSuccess(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, newTestTokens(), nil)
	router := setupAuthRouter(handler)

	profileRepo.On("CreateProfile", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string")).
		Return(models.Profile{ID: 1, Username: "alice", Email: "alice@example.com"}, nil).Once()

	body := bytes.NewBufferString(`{"username":"alice","email":"Alice@Example.com","password":"supersecret","confirm_password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestRegisterValidationFailure(t *testing.T) {
	handler := NewAuthHandler(new(mocks.ProfileRepositoryMock), newTestTokens(), nil)
	router := setupAuthRouter(handler)

	body := bytes.NewBufferString(`{"username":"al","email":"not-an-email","password":"short","confirm_password":"different"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Fields map[string][]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Fields, "username")
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "password")
	assert.Contains(t, resp.Fields, "confirmpassword")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, newTestTokens(), nil)
	router := setupAuthRouter(handler)

	profileRepo.On("CreateProfile", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string")).
		Return(models.Profile{}, repositories.ErrEmailTaken).Once()

	body := bytes.NewBufferString(`{"username":"alice","email":"alice@example.com","password":"supersecret","confirm_password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestRegisterThenLoginYieldsSameUser(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tokens := newTestTokens()
	handler := NewAuthHandler(profileRepo, tokens, nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("supersecret")
	require.NoError(t, err)

	profile := models.Profile{ID: 42, Username: "bob", Email: "bob@example.com"}
	profileRepo.On("CreateProfile", mock.Anything, "bob", "bob@example.com", mock.AnythingOfType("string")).
		Return(profile, nil).Once()
	profileRepo.On("GetCredentialByEmail", mock.Anything, "bob@example.com").
		Return(models.Credential{Profile: profile, PasswordHash: hash}, nil).Once()

	register := httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"username":"bob","email":"bob@example.com","password":"supersecret","confirm_password":"supersecret"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, register)
	require.Equal(t, http.StatusCreated, rec.Code)

	login := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"bob@example.com","password":"supersecret"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, login)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	userID, err := tokens.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	profileRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, newTestTokens(), nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("supersecret")
	require.NoError(t, err)
	profileRepo.On("GetCredentialByEmail", mock.Anything, "bob@example.com").
		Return(models.Credential{Profile: models.Profile{ID: 42}, PasswordHash: hash}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"bob@example.com","password":"wrongpassword"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, newTestTokens(), nil)
	router := setupAuthRouter(handler)

	profileRepo.On("GetCredentialByEmail", mock.Anything, "ghost@example.com").
		Return(models.Credential{}, repositories.ErrProfileNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"ghost@example.com","password":"whatever1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tokens := newTestTokens()
	handler := NewAuthHandler(profileRepo, tokens, nil)
	router := setupAuthRouter(handler)

	refreshToken, err := tokens.IssueRefresh(42)
	require.NoError(t, err)
	profileRepo.On("GetProfile", mock.Anything, 42).
		Return(models.Profile{ID: 42, Username: "bob"}, nil).Once()

	body, err := json.Marshal(gin.H{"refresh_token": refreshToken})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	userID, err := tokens.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	userID, err = tokens.ValidateRefresh(resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
	profileRepo.AssertExpectations(t)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tokens := newTestTokens()
	handler := NewAuthHandler(profileRepo, tokens, nil)
	router := setupAuthRouter(handler)

	accessToken, err := tokens.Issue(42)
	require.NoError(t, err)

	body, err := json.Marshal(gin.H{"refresh_token": accessToken})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	profileRepo.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tokens := newTestTokens()
	handler := NewAuthHandler(profileRepo, tokens, nil)
	router := setupAuthRouter(handler)

	refreshToken, err := tokens.IssueRefresh(42)
	require.NoError(t, err)
	profileRepo.On("GetProfile", mock.Anything, 42).
		Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	body, err := json.Marshal(gin.H{"refresh_token": refreshToken})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestLogoutEmitsAudit(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.social_chat", "social-chat-service", "test")
	handler := NewAuthHandler(new(mocks.ProfileRepositoryMock), newTestTokens(), emitter)
	router := setupAuthRouter(handler)

	publisher.On("Publish", mock.Anything, "audit.social_chat", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok && envelope.Payload.Text == "user signed out" &&
			envelope.UserID != nil && *envelope.UserID == 1
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)
}

func TestMeSuccess(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, newTestTokens(), nil)
	router := setupAuthRouter(handler)

	profileRepo.On("GetProfile", mock.Anything, 1).
		Return(models.Profile{ID: 1, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profileRepo.AssertExpectations(t)
}
