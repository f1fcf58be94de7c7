package handler

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"whiteboard-backend/internal/model"
)

// wsConn is the subset of *websocket.Conn the hub writes through.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}

// BoardEvent is the outbound wire envelope.
type BoardEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// BoardClient is one authenticated connection joined to board rooms.
type BoardClient struct {
	SessionID string
	UserID    int64
	Nickname  string
	conn      wsConn
	writeMu   sync.Mutex
}

// NewBoardClient BoardClient 생성
func NewBoardClient(userID int64, nickname string, conn wsConn) *BoardClient {
	return &BoardClient{
		SessionID: uuid.New().String(),
		UserID:    userID,
		Nickname:  nickname,
		conn:      conn,
	}
}

// Send writes one event to this connection. The write lock serializes
// concurrent broadcasts onto the same socket.
func (c *BoardClient) Send(event string, payload any) error {
	data, err := json.Marshal(BoardEvent{Type: event, Payload: payload})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// boardRoom holds the joined clients of one room.
type boardRoom struct {
	clients map[string]*BoardClient // keyed by session ID
	mu      sync.RWMutex
}

// BoardHub routes engine outcomes to connected room members. It owns
// the connection→room mapping for this process; in a multi-process
// deployment rooms must be sharded so all connections for a room land
// on one process.
type BoardHub struct {
	rooms map[string]*boardRoom // keyed by RoomRef.Key()
	mu    sync.RWMutex
}

// NewBoardHub BoardHub 생성
func NewBoardHub() *BoardHub {
	return &BoardHub{
		rooms: make(map[string]*boardRoom),
	}
}

// Join registers a client in a room. The hub lock is held across lookup
// and insert so a concurrent Leave cannot reap the room in between and
// strand the client in an unreachable copy.
func (h *BoardHub) Join(room model.RoomRef, client *BoardClient) {
	h.mu.Lock()
	r, ok := h.rooms[room.Key()]
	if !ok {
		r = &boardRoom{
			clients: make(map[string]*BoardClient),
		}
		h.rooms[room.Key()] = r
	}

	r.mu.Lock()
	r.clients[client.SessionID] = client
	total := len(r.clients)
	r.mu.Unlock()
	h.mu.Unlock()

	log.Printf("[BoardHub] %s joined %s (user %d), members: %d", client.SessionID, room.Key(), client.UserID, total)
}

// Leave removes a client from a room, dropping the room once empty.
func (h *BoardHub) Leave(room model.RoomRef, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[room.Key()]
	if !ok {
		return
	}

	r.mu.Lock()
	delete(r.clients, sessionID)
	empty := len(r.clients) == 0
	r.mu.Unlock()

	if empty {
		delete(h.rooms, room.Key())
		log.Printf("[BoardHub] Removed empty room %s", room.Key())
	}
}

// RoomSize returns the number of connections joined to the room.
func (h *BoardHub) RoomSize(room model.RoomRef) int {
	h.mu.RLock()
	r, ok := h.rooms[room.Key()]
	h.mu.RUnlock()

	if !ok {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends an event to every member of the room, sender
// included. Used for authoritative outcomes every client must
// reconcile against its optimistic local state.
func (h *BoardHub) Broadcast(room model.RoomRef, event string, payload any) {
	h.fanOut(room, "", event, payload)
}

// BroadcastExcept sends an event to every member except one connection.
// Used on the hot path: the sender already rendered its own input
// locally, echoing it back wastes a round-trip.
func (h *BoardHub) BroadcastExcept(room model.RoomRef, exceptSessionID string, event string, payload any) {
	h.fanOut(room, exceptSessionID, event, payload)
}

func (h *BoardHub) fanOut(room model.RoomRef, exceptSessionID string, event string, payload any) {
	h.mu.RLock()
	r, ok := h.rooms[room.Key()]
	h.mu.RUnlock()

	if !ok {
		return
	}

	r.mu.RLock()
	targets := make([]*BoardClient, 0, len(r.clients))
	for sessionID, client := range r.clients {
		if sessionID == exceptSessionID {
			continue
		}
		targets = append(targets, client)
	}
	r.mu.RUnlock()

	for _, client := range targets {
		if err := client.Send(event, payload); err != nil {
			log.Printf("[BoardHub] Failed to send %s to %s in %s: %v", event, client.SessionID, room.Key(), err)
		}
	}
}
