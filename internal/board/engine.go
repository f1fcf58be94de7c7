package board

import (
	"context"
	"errors"
	"fmt"
	"log"

	"whiteboard-backend/internal/model"
)

var (
	// ErrUnauthorized is returned when a discrete command fails its
	// authorization check. Streaming-path ownership mismatches are
	// dropped silently instead; see MoveStroke and EndStroke.
	ErrUnauthorized = errors.New("not allowed in this room")

	// ErrInvalidTool is returned when an operation receives a tool
	// outside the set it handles.
	ErrInvalidTool = errors.New("invalid tool for this operation")
)

// StrokeStore is the durable side of the engine. *store.StrokeStore
// satisfies it.
type StrokeStore interface {
	Append(ctx context.Context, stroke *model.WhiteboardStroke) error
	SoftDelete(ctx context.Context, room model.RoomRef, token string) (bool, error)
	SoftDeleteAll(ctx context.Context, room model.RoomRef) (int64, error)
	FindByToken(ctx context.Context, room model.RoomRef, token string) (*model.WhiteboardStroke, error)
	FindLatestByAuthor(ctx context.Context, room model.RoomRef, authorID int64) (*model.WhiteboardStroke, error)
	ListActive(ctx context.Context, room model.RoomRef) ([]model.WhiteboardStroke, error)
	CountActive(ctx context.Context, room model.RoomRef) (int64, error)
}

// AccessPolicy answers room-scoped authorization questions.
// *access.Policy satisfies it.
type AccessPolicy interface {
	CanAccess(ctx context.Context, room model.RoomRef, userID int64) (bool, error)
	CanModerate(ctx context.Context, room model.RoomRef, userID int64) (bool, error)
}

// StartInput carries the parameters of a start-stroke action.
type StartInput struct {
	Token   string
	Tool    model.Tool
	Color   string
	Width   float64
	Opacity float64
	Start   model.Point
}

// ShapeInput carries the parameters of a draw-shape action.
type ShapeInput struct {
	Token   string
	Tool    model.Tool
	Color   string
	Width   float64
	Opacity float64
	StartX  float64
	StartY  float64
	EndX    float64
	EndY    float64
}

// TextInput carries the parameters of a draw-text action.
type TextInput struct {
	Token      string
	Text       string
	X          float64
	Y          float64
	FontSize   float64
	FontFamily string
	Color      string
}

// Engine is the stroke lifecycle state machine. Freehand strokes move
// through start → move* → end, accumulating in the buffer and hitting
// the store only at finalization. Shapes and text persist atomically in
// one call. The engine owns the buffer; the store is the single source
// of truth.
type Engine struct {
	store  StrokeStore
	policy AccessPolicy
	buffer *Buffer
}

// NewEngine Engine 생성
func NewEngine(st StrokeStore, policy AccessPolicy) *Engine {
	return &Engine{
		store:  st,
		policy: policy,
		buffer: NewBuffer(),
	}
}

// Buffer returns the active-stroke buffer, for the reaper that sweeps it.
func (e *Engine) Buffer() *Buffer {
	return e.buffer
}

// StartStroke begins a freehand stroke. It authorizes room access,
// creates the buffer entry with the first point and returns an ephemeral
// (id 0) representation. Nothing is written to the store yet.
func (e *Engine) StartStroke(ctx context.Context, room model.RoomRef, userID int64, in StartInput) (*model.WhiteboardStroke, error) {
	if !in.Tool.IsFreehand() {
		return nil, ErrInvalidTool
	}
	if err := e.authorize(ctx, room, userID); err != nil {
		return nil, err
	}

	e.buffer.Start(room, in.Token, userID, in.Tool, in.Color, in.Width, in.Opacity, in.Start)

	return &model.WhiteboardStroke{
		StrokeToken: in.Token,
		RoomKind:    room.Kind,
		RoomID:      room.ID,
		AuthorID:    userID,
		Tool:        in.Tool,
		Path:        model.EncodePoints([]model.Point{in.Start}),
		Color:       in.Color,
		Width:       in.Width,
		Opacity:     in.Opacity,
	}, nil
}

// MoveStroke appends points to an in-flight stroke. Room access was
// verified at start time; re-checking per packet would defeat the
// latency goal. Returns nil when the token is unknown or owned by a
// different author, in which case the update is dropped without error.
func (e *Engine) MoveStroke(room model.RoomRef, userID int64, token string, pts []model.Point) []model.Point {
	return e.buffer.AppendPoints(room, token, userID, pts)
}

// EndStroke finalizes an in-flight stroke: the buffer entry is consumed
// and the accumulated geometry is written to the store. Returns
// (nil, nil) when the token is unknown or owned by a different author.
// If the durable write fails the geometry is already gone from the
// buffer; the error is surfaced so the caller does not report a false
// success.
func (e *Engine) EndStroke(ctx context.Context, room model.RoomRef, userID int64, token string) (*model.WhiteboardStroke, error) {
	entry := e.buffer.Finalize(room, token, userID)
	if entry == nil {
		return nil, nil
	}

	stroke := &model.WhiteboardStroke{
		StrokeToken: entry.Token,
		RoomKind:    room.Kind,
		RoomID:      room.ID,
		AuthorID:    entry.AuthorID,
		Tool:        entry.Tool,
		Path:        model.EncodePoints(entry.Points),
		Color:       entry.Color,
		Width:       entry.Width,
		Opacity:     entry.Opacity,
	}

	if err := e.store.Append(ctx, stroke); err != nil {
		log.Printf("[Board] Failed to persist stroke %s in %s: %v (geometry lost)", token, room.Key(), err)
		return nil, fmt.Errorf("persist stroke %s: %w", token, err)
	}

	return stroke, nil
}

// DrawShape persists an atomic shape stroke. No buffering, no
// intermediate state: the single record is the whole lifecycle.
func (e *Engine) DrawShape(ctx context.Context, room model.RoomRef, userID int64, in ShapeInput) (*model.WhiteboardStroke, error) {
	if !in.Tool.IsShape() {
		return nil, ErrInvalidTool
	}
	if err := e.authorize(ctx, room, userID); err != nil {
		return nil, err
	}

	stroke := &model.WhiteboardStroke{
		StrokeToken: in.Token,
		RoomKind:    room.Kind,
		RoomID:      room.ID,
		AuthorID:    userID,
		Tool:        in.Tool,
		Path:        "[]",
		Color:       in.Color,
		Width:       in.Width,
		Opacity:     in.Opacity,
		StartX:      in.StartX,
		StartY:      in.StartY,
		EndX:        in.EndX,
		EndY:        in.EndY,
	}

	if err := e.store.Append(ctx, stroke); err != nil {
		log.Printf("[Board] Failed to persist shape %s in %s: %v", in.Token, room.Key(), err)
		return nil, fmt.Errorf("persist shape %s: %w", in.Token, err)
	}

	return stroke, nil
}

// DrawText persists an atomic text element.
func (e *Engine) DrawText(ctx context.Context, room model.RoomRef, userID int64, in TextInput) (*model.WhiteboardStroke, error) {
	if err := e.authorize(ctx, room, userID); err != nil {
		return nil, err
	}

	stroke := &model.WhiteboardStroke{
		StrokeToken: in.Token,
		RoomKind:    room.Kind,
		RoomID:      room.ID,
		AuthorID:    userID,
		Tool:        model.ToolText,
		Path:        "[]",
		Color:       in.Color,
		Opacity:     1,
		TextContent: &in.Text,
		FontSize:    &in.FontSize,
		FontFamily:  &in.FontFamily,
		StartX:      in.X,
		StartY:      in.Y,
	}

	if err := e.store.Append(ctx, stroke); err != nil {
		log.Printf("[Board] Failed to persist text %s in %s: %v", in.Token, room.Key(), err)
		return nil, fmt.Errorf("persist text %s: %w", in.Token, err)
	}

	return stroke, nil
}

// EraseStroke soft-deletes one stroke. Owners may erase their own
// strokes; anyone else needs moderation rights. Unlike the streaming
// path, a failed check here raises: an explicit deletion request must
// never be silently ignored. Returns false when no matching non-deleted
// stroke exists.
func (e *Engine) EraseStroke(ctx context.Context, room model.RoomRef, userID int64, token string) (bool, error) {
	stroke, err := e.store.FindByToken(ctx, room, token)
	if err != nil {
		return false, fmt.Errorf("find stroke %s: %w", token, err)
	}
	if stroke == nil {
		return false, nil
	}

	if stroke.AuthorID != userID {
		mod, err := e.policy.CanModerate(ctx, room, userID)
		if err != nil {
			return false, fmt.Errorf("moderation check: %w", err)
		}
		if !mod {
			return false, ErrUnauthorized
		}
	}

	return e.store.SoftDelete(ctx, room, token)
}

// Undo soft-deletes the caller's most recent non-deleted stroke in the
// room and returns it, or (nil, nil) when the caller has none left. By
// construction the caller can only ever undo their own strokes.
func (e *Engine) Undo(ctx context.Context, room model.RoomRef, userID int64) (*model.WhiteboardStroke, error) {
	latest, err := e.store.FindLatestByAuthor(ctx, room, userID)
	if err != nil {
		return nil, fmt.Errorf("find latest stroke: %w", err)
	}
	if latest == nil {
		return nil, nil
	}

	ok, err := e.store.SoftDelete(ctx, room, latest.StrokeToken)
	if err != nil {
		return nil, fmt.Errorf("undo stroke %s: %w", latest.StrokeToken, err)
	}
	if !ok {
		return nil, nil
	}

	return latest, nil
}

// Clear soft-deletes every non-deleted stroke in the room. Moderators
// only. Returns the number of strokes cleared.
func (e *Engine) Clear(ctx context.Context, room model.RoomRef, userID int64) (int64, error) {
	mod, err := e.policy.CanModerate(ctx, room, userID)
	if err != nil {
		return 0, fmt.Errorf("moderation check: %w", err)
	}
	if !mod {
		return 0, ErrUnauthorized
	}

	return e.store.SoftDeleteAll(ctx, room)
}

// Sync authorizes room access and returns the full snapshot: all
// non-deleted strokes in replay order.
func (e *Engine) Sync(ctx context.Context, room model.RoomRef, userID int64) ([]model.WhiteboardStroke, error) {
	if err := e.authorize(ctx, room, userID); err != nil {
		return nil, err
	}
	return e.store.ListActive(ctx, room)
}

// Count authorizes room access and returns the active stroke count.
func (e *Engine) Count(ctx context.Context, room model.RoomRef, userID int64) (int64, error) {
	if err := e.authorize(ctx, room, userID); err != nil {
		return 0, err
	}
	return e.store.CountActive(ctx, room)
}

func (e *Engine) authorize(ctx context.Context, room model.RoomRef, userID int64) error {
	ok, err := e.policy.CanAccess(ctx, room, userID)
	if err != nil {
		return fmt.Errorf("access check: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
