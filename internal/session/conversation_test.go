package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-chat-service/internal/models"
)

func TestAppendLocalWhileDisconnected(t *testing.T) {
	conv := NewConversation(1, 2)

	_, err := conv.AppendLocal("hello")
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, conv.Len())
}

func TestAppendLocalThenConfirm(t *testing.T) {
	conv := NewConversation(1, 2)
	conv.SetConnected(true)

	tempID, err := conv.AppendLocal("hello")
	require.NoError(t, err)
	require.Equal(t, 1, conv.Len())

	durable := models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Content: "hello"}
	require.True(t, conv.Confirm(tempID, durable))

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, 10, msgs[0].ID)
}

func TestAppendLocalThenRollback(t *testing.T) {
	conv := NewConversation(1, 2)
	conv.SetConnected(true)

	token := conv.BeginLoad()
	require.True(t, conv.CompleteLoad(token, []models.Message{
		{ID: 1, SenderID: 2, ReceiverID: 1, Content: "hi"},
	}))
	before := conv.Len()

	tempID, err := conv.AppendLocal("doomed")
	require.NoError(t, err)
	require.Equal(t, before+1, conv.Len())

	require.True(t, conv.Rollback(tempID))
	assert.Equal(t, before, conv.Len())
	assert.False(t, conv.Rollback(tempID))
}

func TestCompleteLoadDiscardsStaleToken(t *testing.T) {
	conv := NewConversation(1, 2)

	stale := conv.BeginLoad()
	current := conv.BeginLoad()

	require.True(t, conv.CompleteLoad(current, []models.Message{
		{ID: 5, SenderID: 1, ReceiverID: 2, Content: "fresh"},
	}))
	require.False(t, conv.CompleteLoad(stale, []models.Message{
		{ID: 1, SenderID: 1, ReceiverID: 2, Content: "old"},
	}))

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "fresh", msgs[0].Content)
}

func TestApplyEventFiltersOtherPairs(t *testing.T) {
	conv := NewConversation(1, 2)

	applied := conv.ApplyEvent(models.ConversationEvent{
		Type:    "message",
		Message: &models.Message{ID: 20, SenderID: 3, ReceiverID: 1, Content: "wrong pair"},
	})
	assert.False(t, applied)
	assert.Equal(t, 0, conv.Len())

	applied = conv.ApplyEvent(models.ConversationEvent{
		Type:    "message",
		Message: &models.Message{ID: 21, SenderID: 2, ReceiverID: 1, Content: "for us"},
	})
	assert.True(t, applied)
	assert.Equal(t, 1, conv.Len())
}

func TestApplyEventIgnoresNonMessageEvents(t *testing.T) {
	conv := NewConversation(1, 2)

	assert.False(t, conv.ApplyEvent(models.ConversationEvent{Type: "typing"}))
	assert.False(t, conv.ApplyEvent(models.ConversationEvent{Type: "message"}))
	assert.Equal(t, 0, conv.Len())
}

func TestLocalOrderInterleavesLoadEventsAndSends(t *testing.T) {
	conv := NewConversation(1, 2)
	conv.SetConnected(true)

	token := conv.BeginLoad()
	require.True(t, conv.CompleteLoad(token, []models.Message{
		{ID: 1, SenderID: 1, ReceiverID: 2, Content: "first"},
	}))

	tempID, err := conv.AppendLocal("second")
	require.NoError(t, err)
	conv.ApplyEvent(models.ConversationEvent{
		Type:    "message",
		Message: &models.Message{ID: 3, SenderID: 2, ReceiverID: 1, Content: "third"},
	})
	require.True(t, conv.Confirm(tempID, models.Message{ID: 2, SenderID: 1, ReceiverID: 2, Content: "second"}))

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}
