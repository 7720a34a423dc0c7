package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-chat-service/internal/logger"
	"social-chat-service/internal/models"
	"social-chat-service/internal/observability"
)

// ConversationRoom derives the hub room key for a pair of users. The key is
// built from sorted user ids, so it is stable under username changes and the
// same from either side.
func ConversationRoom(userID, friendID int) string {
	if friendID < userID {
		userID, friendID = friendID, userID
	}
	return fmt.Sprintf("conversation:%d:%d", userID, friendID)
}

// Hub maintains active websocket conversation rooms.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection to a conversation room.
func (h *Hub) AddClient(room string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*websocket.Conn]bool)
	}
	h.rooms[room][conn] = true
	if _, ok := h.connInfo[room]; !ok {
		h.connInfo[room] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[room][conn] = info
}

// RemoveClient removes a websocket connection from its room.
func (h *Hub) RemoveClient(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[room]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
	if infos, ok := h.connInfo[room]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, room)
		}
	}
}

// BroadcastMessage sends a stored message to every client in the room. The
// member set is copied under the lock so concurrent joins and leaves cannot
// mutate the map mid-iteration.
func (h *Hub) BroadcastMessage(room string, msg models.Message) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	event := models.ConversationEvent{Type: "message", Message: &msg}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Log.Warnf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(room, conn)
			h.publishWSError(room, conn, err)
		}
	}
}

func (h *Hub) publishWSError(room string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(room, conn)
	if !ok {
		return
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.conversations", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   wsEventPayload(room, info, "ws_error", err.Error(), time.Since(info.ConnectedAt)),
	}, headers)
	observability.IncWSEvent("conversation", "ws_error")
}

func (h *Hub) getConnInfo(room string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[room]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

func wsEventPayload(room string, info ConnInfo, event, reason string, duration time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "conversation",
			"room":        room,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration.Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
