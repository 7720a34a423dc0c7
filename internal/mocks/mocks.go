package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"social-chat-service/internal/models"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/storage"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) CreateProfile(ctx context.Context, username, email, passwordHash string) (models.Profile, error) {
	args := m.Called(ctx, username, email, passwordHash)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetCredentialByEmail(ctx context.Context, email string) (models.Credential, error) {
	args := m.Called(ctx, email)
	var cred models.Credential
	if val := args.Get(0); val != nil {
		cred = val.(models.Credential)
	}
	return cred, args.Error(1)
}

func (m *ProfileRepositoryMock) GetCredential(ctx context.Context, userID int) (models.Credential, error) {
	args := m.Called(ctx, userID)
	var cred models.Credential
	if val := args.Get(0); val != nil {
		cred = val.(models.Credential)
	}
	return cred, args.Error(1)
}

func (m *ProfileRepositoryMock) SearchStrangers(ctx context.Context, userID int, query string, limit int) ([]models.Profile, error) {
	args := m.Called(ctx, userID, query, limit)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) UpdateUsername(ctx context.Context, userID int, username string) error {
	args := m.Called(ctx, userID, username)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) UpdateEmail(ctx context.Context, userID int, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) UpdateAvatarURL(ctx context.Context, userID int, avatarURL string) error {
	args := m.Called(ctx, userID, avatarURL)
	return args.Error(0)
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) CreateRequest(ctx context.Context, fromUser, toUser int) (models.FriendRequest, error) {
	args := m.Called(ctx, fromUser, toUser)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendRepositoryMock) CancelRequest(ctx context.Context, requestID, fromUser int) error {
	args := m.Called(ctx, requestID, fromUser)
	return args.Error(0)
}

func (m *FriendRepositoryMock) AcceptRequest(ctx context.Context, requestID, fromUser, toUser int) error {
	args := m.Called(ctx, requestID, fromUser, toUser)
	return args.Error(0)
}

func (m *FriendRepositoryMock) DeclineRequest(ctx context.Context, requestID, fromUser, toUser int) error {
	args := m.Called(ctx, requestID, fromUser, toUser)
	return args.Error(0)
}

func (m *FriendRepositoryMock) ListIncoming(ctx context.Context, userID int) ([]models.RequestSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.RequestSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.RequestSummary)
	}
	return list, args.Error(1)
}

func (m *FriendRepositoryMock) ListOutgoing(ctx context.Context, userID int) ([]models.RequestSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.RequestSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.RequestSummary)
	}
	return list, args.Error(1)
}

func (m *FriendRepositoryMock) ListFriends(ctx context.Context, userID int) ([]models.Profile, error) {
	args := m.Called(ctx, userID)
	var friends []models.Profile
	if val := args.Get(0); val != nil {
		friends = val.([]models.Profile)
	}
	return friends, args.Error(1)
}

func (m *FriendRepositoryMock) AreFriends(ctx context.Context, userID, friendID int) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) HasRequestBetween(ctx context.Context, userID, otherID int) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID, receiverID int, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, userID, friendID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, friendID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type AvatarStoreMock struct {
	mock.Mock
}

func (m *AvatarStoreMock) Upload(ctx context.Context, userID int, ext string, r io.Reader) (string, error) {
	args := m.Called(ctx, userID, ext, r)
	return args.String(0), args.Error(1)
}

var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.FriendRepository = (*FriendRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ storage.AvatarStore = (*AvatarStoreMock)(nil)
