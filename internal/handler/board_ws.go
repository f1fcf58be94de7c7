package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/board"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/model"
)

// boardAction is the inbound wire envelope.
type boardAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// roomPayload addresses a room. Every stroke action carries it so one
// connection can multiplex several joined rooms.
type roomPayload struct {
	RoomKind model.RoomKind `json:"roomKind"`
	RoomID   int64          `json:"roomId"`
}

func (p roomPayload) room() model.RoomRef {
	return model.RoomRef{Kind: p.RoomKind, ID: p.RoomID}
}

type startStrokePayload struct {
	roomPayload
	Token      string      `json:"token"`
	Tool       model.Tool  `json:"tool"`
	Color      string      `json:"color"`
	Width      float64     `json:"width"`
	Opacity    float64     `json:"opacity"`
	StartPoint model.Point `json:"startPoint"`
}

type drawMovePayload struct {
	roomPayload
	Token  string        `json:"token"`
	Points []model.Point `json:"points"`
}

type strokeTokenPayload struct {
	roomPayload
	Token string `json:"token"`
}

type drawShapePayload struct {
	roomPayload
	Token  string     `json:"token"`
	Tool   model.Tool `json:"tool"`
	Color  string     `json:"color"`
	Width  float64    `json:"width"`
	StartX float64    `json:"startX"`
	StartY float64    `json:"startY"`
	EndX   float64    `json:"endX"`
	EndY   float64    `json:"endY"`
}

type drawTextPayload struct {
	roomPayload
	Token      string  `json:"token"`
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Color      string  `json:"color"`
}

// BoardWSHandler is the realtime board channel: it maps one
// authenticated connection to the rooms it has joined, attributes every
// inbound action to that identity and routes engine outcomes through
// the hub.
type BoardWSHandler struct {
	engine *board.Engine
	hub    *BoardHub
	redis  *cache.RedisClient // nil when Redis is not configured
}

// NewBoardWSHandler BoardWSHandler 생성
func NewBoardWSHandler(engine *board.Engine, hub *BoardHub, redis *cache.RedisClient) *BoardWSHandler {
	return &BoardWSHandler{
		engine: engine,
		hub:    hub,
		redis:  redis,
	}
}

// HandleWebSocket runs one connection's read loop until it drops.
func (h *BoardWSHandler) HandleWebSocket(c *websocket.Conn) {
	userID, ok1 := c.Locals("userID").(int64)
	nickname, ok2 := c.Locals("nickname").(string)

	if !ok1 || !ok2 {
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"invalid session"}}`))
		c.Close()
		return
	}

	client := NewBoardClient(userID, nickname, c)
	joined := make(map[string]model.RoomRef)

	log.Printf("[BoardWS] Connected: user %d (%s)", userID, client.SessionID)
	client.Send(EventConnected, fiber.Map{"userId": userID, "userName": nickname})

	defer func() {
		// A disconnect mid-stroke leaves the buffer entry intact; the
		// reaper reclaims it if the author never reconnects.
		for _, room := range joined {
			h.hub.Leave(room, client.SessionID)
			h.removeFromRoster(room, userID)
			h.hub.Broadcast(room, EventUserLeft, fiber.Map{"userId": userID, "userName": nickname})
		}
		c.Close()
		log.Printf("[BoardWS] Disconnected: user %d (%s)", userID, client.SessionID)
	}()

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		var action boardAction
		if err := json.Unmarshal(msgBytes, &action); err != nil {
			continue
		}

		h.dispatch(client, joined, action)
	}
}

func (h *BoardWSHandler) dispatch(client *BoardClient, joined map[string]model.RoomRef, action boardAction) {
	switch action.Type {
	case ActionJoinRoom:
		h.handleJoin(client, joined, action.Payload)
	case ActionLeaveRoom:
		h.handleLeave(client, joined, action.Payload)
	case ActionStartStroke:
		h.handleStartStroke(client, joined, action.Payload)
	case ActionDrawMove:
		h.handleDrawMove(client, joined, action.Payload)
	case ActionEndStroke:
		h.handleEndStroke(client, joined, action.Payload)
	case ActionDrawShape:
		h.handleDrawShape(client, joined, action.Payload)
	case ActionDrawText:
		h.handleDrawText(client, joined, action.Payload)
	case ActionEraseStroke:
		h.handleEraseStroke(client, joined, action.Payload)
	case ActionUndo:
		h.handleUndo(client, joined, action.Payload)
	case ActionClear:
		h.handleClear(client, joined, action.Payload)
	case ActionSyncRequest:
		h.handleSyncRequest(client, joined, action.Payload)
	}
}

func (h *BoardWSHandler) handleJoin(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p roomPayload
	if err := json.Unmarshal(payload, &p); err != nil || !p.RoomKind.Valid() {
		h.sendError(client, "invalid room")
		return
	}
	room := p.room()

	strokes, err := h.engine.Sync(context.Background(), room, client.UserID)
	if err != nil {
		h.sendEngineError(client, err)
		return
	}
	if strokes == nil {
		strokes = []model.WhiteboardStroke{}
	}

	h.hub.Join(room, client)
	joined[room.Key()] = room
	h.addToRoster(room, client.UserID, client.Nickname)

	// Snapshot goes only to the joining connection; it replaces, never
	// replays, the events it missed.
	syncPayload := fiber.Map{"strokes": strokes}
	if h.redis != nil {
		if members, err := h.redis.RoomMembers(context.Background(), room); err == nil {
			participants := make([]fiber.Map, 0, len(members))
			for id, nickname := range members {
				participants = append(participants, fiber.Map{"userId": id, "userName": nickname})
			}
			syncPayload["participants"] = participants
		}
	}
	client.Send(EventSyncState, syncPayload)
	h.hub.BroadcastExcept(room, client.SessionID, EventUserJoined, fiber.Map{
		"userId":   client.UserID,
		"userName": client.Nickname,
	})
}

func (h *BoardWSHandler) handleLeave(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p roomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	room := p.room()

	if _, ok := joined[room.Key()]; !ok {
		return
	}

	h.hub.Leave(room, client.SessionID)
	delete(joined, room.Key())
	h.removeFromRoster(room, client.UserID)

	h.hub.Broadcast(room, EventUserLeft, fiber.Map{
		"userId":   client.UserID,
		"userName": client.Nickname,
	})
}

func (h *BoardWSHandler) handleStartStroke(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p startStrokePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(client, "invalid payload")
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		h.sendError(client, "join the room first")
		return
	}

	_, err := h.engine.StartStroke(context.Background(), room, client.UserID, board.StartInput{
		Token:   p.Token,
		Tool:    p.Tool,
		Color:   p.Color,
		Width:   p.Width,
		Opacity: p.Opacity,
		Start:   p.StartPoint,
	})
	if err != nil {
		h.sendEngineError(client, err)
		return
	}

	h.hub.BroadcastExcept(room, client.SessionID, EventStrokeStarted, fiber.Map{
		"token":      p.Token,
		"userId":     client.UserID,
		"tool":       p.Tool,
		"color":      p.Color,
		"width":      p.Width,
		"opacity":    p.Opacity,
		"startPoint": p.StartPoint,
	})
}

func (h *BoardWSHandler) handleDrawMove(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p drawMovePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		return
	}

	// An unknown token or a foreign author yields nil: the packet is
	// dropped without an error, lost in-flight updates are recoverable.
	pts := h.engine.MoveStroke(room, client.UserID, p.Token, p.Points)
	if pts == nil {
		return
	}

	h.hub.BroadcastExcept(room, client.SessionID, EventStrokeMove, fiber.Map{
		"token":  p.Token,
		"points": pts,
	})
}

func (h *BoardWSHandler) handleEndStroke(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p strokeTokenPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		return
	}

	stroke, err := h.engine.EndStroke(context.Background(), room, client.UserID, p.Token)
	if err != nil {
		h.sendError(client, "failed to save stroke")
		return
	}
	if stroke == nil {
		return
	}

	h.hub.Broadcast(room, EventStrokeCompleted, fiber.Map{
		"token": stroke.StrokeToken,
		"id":    stroke.ID,
	})
}

func (h *BoardWSHandler) handleDrawShape(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p drawShapePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(client, "invalid payload")
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		h.sendError(client, "join the room first")
		return
	}

	stroke, err := h.engine.DrawShape(context.Background(), room, client.UserID, board.ShapeInput{
		Token:   p.Token,
		Tool:    p.Tool,
		Color:   p.Color,
		Width:   p.Width,
		Opacity: 1,
		StartX:  p.StartX,
		StartY:  p.StartY,
		EndX:    p.EndX,
		EndY:    p.EndY,
	})
	if err != nil {
		h.sendEngineError(client, err)
		return
	}

	h.hub.BroadcastExcept(room, client.SessionID, EventShapeDrawn, fiber.Map{
		"token":  stroke.StrokeToken,
		"userId": client.UserID,
		"tool":   stroke.Tool,
		"color":  stroke.Color,
		"width":  stroke.Width,
		"startX": stroke.StartX,
		"startY": stroke.StartY,
		"endX":   stroke.EndX,
		"endY":   stroke.EndY,
	})
	h.hub.Broadcast(room, EventStrokeCompleted, fiber.Map{
		"token": stroke.StrokeToken,
		"id":    stroke.ID,
	})
}

func (h *BoardWSHandler) handleDrawText(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p drawTextPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(client, "invalid payload")
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		h.sendError(client, "join the room first")
		return
	}
	if p.Text == "" {
		return
	}

	stroke, err := h.engine.DrawText(context.Background(), room, client.UserID, board.TextInput{
		Token:      p.Token,
		Text:       p.Text,
		X:          p.X,
		Y:          p.Y,
		FontSize:   p.FontSize,
		FontFamily: p.FontFamily,
		Color:      p.Color,
	})
	if err != nil {
		h.sendEngineError(client, err)
		return
	}

	h.hub.BroadcastExcept(room, client.SessionID, EventTextDrawn, fiber.Map{
		"token":      stroke.StrokeToken,
		"userId":     client.UserID,
		"text":       p.Text,
		"x":          stroke.StartX,
		"y":          stroke.StartY,
		"fontSize":   p.FontSize,
		"fontFamily": p.FontFamily,
		"color":      stroke.Color,
	})
	h.hub.Broadcast(room, EventStrokeCompleted, fiber.Map{
		"token": stroke.StrokeToken,
		"id":    stroke.ID,
	})
}

func (h *BoardWSHandler) handleEraseStroke(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p strokeTokenPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(client, "invalid payload")
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		h.sendError(client, "join the room first")
		return
	}

	erased, err := h.engine.EraseStroke(context.Background(), room, client.UserID, p.Token)
	if err != nil {
		h.sendEngineError(client, err)
		return
	}
	if !erased {
		return
	}

	h.hub.Broadcast(room, EventStrokeErased, fiber.Map{
		"token":  p.Token,
		"userId": client.UserID,
	})
}

func (h *BoardWSHandler) handleUndo(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p roomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		h.sendError(client, "join the room first")
		return
	}

	stroke, err := h.engine.Undo(context.Background(), room, client.UserID)
	if err != nil {
		h.sendEngineError(client, err)
		return
	}
	if stroke == nil {
		return
	}

	h.hub.Broadcast(room, EventStrokeUndone, fiber.Map{
		"token":  stroke.StrokeToken,
		"userId": client.UserID,
	})
}

func (h *BoardWSHandler) handleClear(client *BoardClient, joined map[string]model.RoomRef, payload json.RawMessage) {
	var p roomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	room, ok := joined[p.room().Key()]
	if !ok {
		h.sendError(client, "join the room first")
		return
	}

	cleared, err := h.engine.Clear(context.Background(), room, client.UserID)
	if err != nil {
		h.sendEngineError(client, err)
		return
	}

	h.hub.Broadcast(room, EventCleared, fiber.Map{
		"userId":         client.UserID,
		"userName":       client.Nickname,
		"strokesCleared": cleared,
	})
}

// handleSyncRequest serves the snapshot without requiring a prior join.
// It is a pure read, gated by the same access check as the HTTP state
// endpoint; a room the caller cannot access raises, an empty room yields
// an empty snapshot.
func (h *BoardWSHandler) handleSyncRequest(client *BoardClient, _ map[string]model.RoomRef, payload json.RawMessage) {
	var p roomPayload
	if err := json.Unmarshal(payload, &p); err != nil || !p.RoomKind.Valid() {
		return
	}
	room := p.room()

	strokes, err := h.engine.Sync(context.Background(), room, client.UserID)
	if err != nil {
		h.sendEngineError(client, err)
		return
	}
	if strokes == nil {
		strokes = []model.WhiteboardStroke{}
	}

	client.Send(EventSyncState, fiber.Map{"strokes": strokes})
}

// sendError notifies the offending connection only; other room members
// are unaffected.
func (h *BoardWSHandler) sendError(client *BoardClient, message string) {
	client.Send(EventError, fiber.Map{"message": message})
}

func (h *BoardWSHandler) sendEngineError(client *BoardClient, err error) {
	switch {
	case errors.Is(err, board.ErrUnauthorized):
		h.sendError(client, "you cannot do that in this room")
	case errors.Is(err, board.ErrInvalidTool):
		h.sendError(client, "invalid tool")
	default:
		log.Printf("[BoardWS] Engine error for user %d: %v", client.UserID, err)
		h.sendError(client, "internal error")
	}
}

func (h *BoardWSHandler) addToRoster(room model.RoomRef, userID int64, nickname string) {
	if h.redis == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := h.redis.AddRoomMember(ctx, room, userID, nickname); err != nil {
			log.Printf("[BoardWS] Failed to update roster for %s: %v", room.Key(), err)
		}
	}()
}

func (h *BoardWSHandler) removeFromRoster(room model.RoomRef, userID int64) {
	if h.redis == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := h.redis.RemoveRoomMember(ctx, room, userID); err != nil {
			log.Printf("[BoardWS] Failed to update roster for %s: %v", room.Key(), err)
		}
	}()
}
