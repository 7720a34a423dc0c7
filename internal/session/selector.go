package session

import (
	"sync"

	"social-chat-service/internal/models"
)

// Selector tracks which friend's chat surface is open for one client
// session. At most one chat is open at a time: opening a new one replaces
// the previous selection unconditionally and discards its draft.
type Selector struct {
	mu    sync.Mutex
	peer  *models.Profile
	draft string
}

// NewSelector starts in the closed state.
func NewSelector() *Selector {
	return &Selector{}
}

// Open selects a peer, replacing any prior selection and dropping the draft.
func (s *Selector) Open(peer models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := peer
	s.peer = &p
	s.draft = ""
}

// Close clears the selection.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = nil
	s.draft = ""
}

// Selected returns the open peer, if any.
func (s *Selector) Selected() (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return models.Profile{}, false
	}
	return *s.peer, true
}

// IsOpen reports whether a chat surface is open.
func (s *Selector) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer != nil
}

// SetDraft stores composed-but-unsent input for the open chat.
func (s *Selector) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer != nil {
		s.draft = text
	}
}

// Draft returns the retained draft text.
func (s *Selector) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}
