package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"social-chat-service/internal/models"
)

var ErrNotConnected = errors.New("conversation is not connected")

// Entry is one element of the locally ordered message sequence. Pending
// entries were appended optimistically and carry a temporary id until the
// durable write confirms or rolls them back.
type Entry struct {
	TempID  string
	Pending bool
	Message models.Message
}

// Conversation maintains the message sequence for the active (self, peer)
// pair: a bulk history load seeds it, subscription events append to it when
// they match the pair, and local sends are inserted optimistically and
// reconciled against the durable write outcome. A single session owns the
// conversation; the mutex only guards the boundary between the UI goroutine
// and network callbacks.
type Conversation struct {
	mu         sync.Mutex
	selfID     int
	peerID     int
	connected  bool
	generation uint64
	entries    []Entry
}

// NewConversation creates an empty, disconnected conversation.
func NewConversation(selfID, peerID int) *Conversation {
	return &Conversation{selfID: selfID, peerID: peerID}
}

// SetConnected flips the gate that permits sending.
func (c *Conversation) SetConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = connected
}

// Connected reports whether sends are currently permitted.
func (c *Conversation) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// BeginLoad marks the start of a history fetch and returns its generation
// token. Completions carrying a stale token are discarded, so a fetch that
// outlives its conversation view cannot clobber newer state.
func (c *Conversation) BeginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// CompleteLoad replaces the sequence with the fetched history when the token
// is still current. It reports whether the load was applied.
func (c *Conversation) CompleteLoad(token uint64, history []models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.generation {
		return false
	}
	entries := make([]Entry, 0, len(history))
	for _, msg := range history {
		entries = append(entries, Entry{Message: msg})
	}
	c.entries = entries
	return true
}

// ApplyEvent appends a subscription-delivered message when it belongs to the
// active pair. Events for other pairs are ignored even if delivered on a
// shared channel namespace. It reports whether the event was appended.
func (c *Conversation) ApplyEvent(event models.ConversationEvent) bool {
	if event.Type != "message" || event.Message == nil {
		return false
	}
	msg := *event.Message
	if !c.matchesPair(msg.SenderID, msg.ReceiverID) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Message: msg})
	return true
}

// AppendLocal inserts an optimistic entry for a message the user just sent
// and returns its temporary id. While disconnected it mutates nothing and
// returns ErrNotConnected; the composed content stays in the input draft.
func (c *Conversation) AppendLocal(content string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return "", ErrNotConnected
	}
	tempID := uuid.NewString()
	c.entries = append(c.entries, Entry{
		TempID:  tempID,
		Pending: true,
		Message: models.Message{
			SenderID:   c.selfID,
			ReceiverID: c.peerID,
			Content:    content,
			CreatedAt:  time.Now(),
		},
	})
	return tempID, nil
}

// Confirm swaps the durable row in for the optimistic entry once the write
// succeeds. It reports whether the temp id was found.
func (c *Conversation) Confirm(tempID string, durable models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].TempID == tempID {
			c.entries[i] = Entry{Message: durable}
			return true
		}
	}
	return false
}

// Rollback removes the optimistic entry after a failed write. This is the
// compensating action; no retry is attempted.
func (c *Conversation) Rollback(tempID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].TempID == tempID {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Messages returns a copy of the visible sequence in local order.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]models.Message, 0, len(c.entries))
	for _, entry := range c.entries {
		msgs = append(msgs, entry.Message)
	}
	return msgs
}

// Len returns the number of visible entries.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Conversation) matchesPair(senderID, receiverID int) bool {
	if senderID == c.selfID && receiverID == c.peerID {
		return true
	}
	return senderID == c.peerID && receiverID == c.selfID
}
