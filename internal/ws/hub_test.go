package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"social-chat-service/internal/models"
)

func TestConversationRoomIsOrderIndependent(t *testing.T) {
	if ConversationRoom(7, 2) != ConversationRoom(2, 7) {
		t.Fatalf("expected same room key from either side")
	}
	if ConversationRoom(2, 7) != "conversation:2:7" {
		t.Fatalf("unexpected room key: %s", ConversationRoom(2, 7))
	}
}

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()
	room := ConversationRoom(1, 2)

	hub.AddClient(room, nil, ConnInfo{})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected room to be created")
	}

	hub.RemoveClient(room, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected room to be removed")
	}
}

// hubTestServer upgrades every request and registers the connection in the
// given room.
func hubTestServer(t *testing.T, hub *Hub, room string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddClient(room, conn, ConnInfo{ConnID: newConnID()})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForMembers blocks until the room has at least n registered clients; the
// server registers a connection after the handshake response is sent, so a
// fresh dial may not be in the room yet.
func waitForMembers(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		size := len(hub.rooms[room])
		hub.mu.RUnlock()
		if size >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d members", room, n)
}

func TestBroadcastMessageDeliversToRoomMembers(t *testing.T) {
	hub := NewHub()
	room := ConversationRoom(1, 2)
	srv := hubTestServer(t, hub, room)
	client := dialHub(t, srv)
	waitForMembers(t, hub, room, 1)

	hub.BroadcastMessage(room, models.Message{ID: 5, SenderID: 1, ReceiverID: 2, Content: "hello"})

	_, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var event models.ConversationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Type != "message" || event.Message == nil || event.Message.Content != "hello" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestBroadcastMessageDuringMembershipChanges(t *testing.T) {
	hub := NewHub()
	room := ConversationRoom(1, 2)
	srv := hubTestServer(t, hub, room)
	dialHub(t, srv)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		for i := 0; i < 5; i++ {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				t.Errorf("dial: %v", err)
				return
			}
			defer conn.Close()
		}
	}()
	for i := 0; i < 20; i++ {
		hub.BroadcastMessage(room, models.Message{ID: i, SenderID: 1, ReceiverID: 2, Content: "ping"})
	}
	wg.Wait()
}
