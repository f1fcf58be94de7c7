package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/board"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/model"
)

// BoardHandler is the non-realtime query surface: thin wrappers that
// authorize, call the engine and return the result as a response
// instead of a broadcast.
type BoardHandler struct {
	engine *board.Engine
	redis  *cache.RedisClient // nil when Redis is not configured
}

// NewBoardHandler BoardHandler 생성
func NewBoardHandler(engine *board.Engine, redis *cache.RedisClient) *BoardHandler {
	return &BoardHandler{engine: engine, redis: redis}
}

// GetBoardState returns the snapshot plus a count for a room.
func (h *BoardHandler) GetBoardState(c *fiber.Ctx) error {
	room, err := roomFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	userID := c.Locals("userID").(int64)

	strokes, err := h.engine.Sync(c.Context(), room, userID)
	if err != nil {
		return h.engineError(c, err)
	}
	if strokes == nil {
		strokes = []model.WhiteboardStroke{}
	}

	canUndo := false
	for i := range strokes {
		if strokes[i].AuthorID == userID {
			canUndo = true
			break
		}
	}

	resp := fiber.Map{
		"success": true,
		"strokes": strokes,
		"count":   len(strokes),
		"canUndo": canUndo,
	}

	if h.redis != nil {
		if members, err := h.redis.RoomMembers(c.Context(), room); err == nil {
			participants := make([]fiber.Map, 0, len(members))
			for id, nickname := range members {
				participants = append(participants, fiber.Map{"userId": id, "userName": nickname})
			}
			resp["participants"] = participants
		}
	}

	return c.JSON(resp)
}

// GetStrokeCount returns only the active stroke count for a room.
func (h *BoardHandler) GetStrokeCount(c *fiber.Ctx) error {
	room, err := roomFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	userID := c.Locals("userID").(int64)

	count, err := h.engine.Count(c.Context(), room, userID)
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "count": count})
}

type roomRequest struct {
	RoomKind model.RoomKind `json:"roomKind"`
	RoomID   int64          `json:"roomId"`
}

// ClearBoard soft-deletes every stroke in the room. Moderators only.
func (h *BoardHandler) ClearBoard(c *fiber.Ctx) error {
	var req roomRequest
	if err := c.BodyParser(&req); err != nil || !req.RoomKind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid room"})
	}
	room := model.RoomRef{Kind: req.RoomKind, ID: req.RoomID}
	userID := c.Locals("userID").(int64)

	cleared, err := h.engine.Clear(c.Context(), room, userID)
	if err != nil {
		return h.engineError(c, err)
	}

	log.Printf("[Board] User %d cleared %s (%d strokes)", userID, room.Key(), cleared)
	return c.JSON(fiber.Map{"success": true, "cleared": cleared})
}

// UndoStroke soft-deletes the caller's most recent stroke in the room.
func (h *BoardHandler) UndoStroke(c *fiber.Ctx) error {
	var req roomRequest
	if err := c.BodyParser(&req); err != nil || !req.RoomKind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid room"})
	}
	room := model.RoomRef{Kind: req.RoomKind, ID: req.RoomID}
	userID := c.Locals("userID").(int64)

	stroke, err := h.engine.Undo(c.Context(), room, userID)
	if err != nil {
		return h.engineError(c, err)
	}
	if stroke == nil {
		return c.JSON(fiber.Map{"success": true, "token": nil})
	}

	return c.JSON(fiber.Map{"success": true, "token": stroke.StrokeToken})
}

// EraseStroke soft-deletes one stroke by token. Owner or moderator only.
func (h *BoardHandler) EraseStroke(c *fiber.Ctx) error {
	room, err := roomFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "stroke token is required"})
	}
	userID := c.Locals("userID").(int64)

	erased, err := h.engine.EraseStroke(c.Context(), room, userID, token)
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "deleted": erased})
}

func roomFromQuery(c *fiber.Ctx) (model.RoomRef, error) {
	kind := model.RoomKind(c.Query("roomKind"))
	if !kind.Valid() {
		return model.RoomRef{}, errors.New("invalid roomKind")
	}
	roomID := int64(c.QueryInt("roomId"))
	if roomID <= 0 {
		return model.RoomRef{}, errors.New("roomId is required")
	}
	return model.RoomRef{Kind: kind, ID: roomID}, nil
}

func (h *BoardHandler) engineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, board.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you cannot do that in this room"})
	case errors.Is(err, board.ErrInvalidTool):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tool"})
	default:
		log.Printf("[Board] Request failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
