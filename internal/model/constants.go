package model

import "fmt"

// RoomKind identifies which subsystem owns a room. Authorization rules
// differ by kind: class rooms are governed by class membership, session
// rooms by live-session participation.
type RoomKind string

const (
	RoomKindClass   RoomKind = "class"
	RoomKindSession RoomKind = "session"
)

func (k RoomKind) String() string {
	return string(k)
}

// Valid reports whether the kind is one of the known room kinds.
func (k RoomKind) Valid() bool {
	switch k {
	case RoomKindClass, RoomKindSession:
		return true
	}
	return false
}

// RoomRef addresses one whiteboard room. It scopes both authorization
// and broadcast.
type RoomRef struct {
	Kind RoomKind `json:"roomKind"`
	ID   int64    `json:"roomId"`
}

// Key returns the canonical map/cache key for the room, e.g. "class:42".
func (r RoomRef) Key() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Tool is a drawing tool. The set is closed: stroke records are only
// constructed through an exhaustive switch over these values.
type Tool string

const (
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolEraser      Tool = "eraser"
	ToolRectangle   Tool = "rectangle"
	ToolEllipse     Tool = "ellipse"
	ToolLine        Tool = "line"
	ToolArrow       Tool = "arrow"
	ToolText        Tool = "text"
)

func (t Tool) String() string {
	return string(t)
}

// Valid reports whether the tool is one of the known tools.
func (t Tool) Valid() bool {
	switch t {
	case ToolPen, ToolHighlighter, ToolEraser, ToolRectangle, ToolEllipse, ToolLine, ToolArrow, ToolText:
		return true
	}
	return false
}

// IsFreehand reports whether the tool accumulates points through the
// start/move/end lifecycle. Shape and text tools persist in a single call.
func (t Tool) IsFreehand() bool {
	switch t {
	case ToolPen, ToolHighlighter, ToolEraser:
		return true
	}
	return false
}

// IsShape reports whether the tool draws an atomic (start, end) primitive.
func (t Tool) IsShape() bool {
	switch t {
	case ToolRectangle, ToolEllipse, ToolLine, ToolArrow:
		return true
	}
	return false
}

// MemberStatus class membership state
type MemberStatus string

const (
	MemberStatusPending MemberStatus = "PENDING"
	MemberStatusActive  MemberStatus = "ACTIVE"
)

func (s MemberStatus) String() string {
	return string(s)
}

// SessionStatus live session state
type SessionStatus string

const (
	SessionStatusOpen  SessionStatus = "OPEN"
	SessionStatusEnded SessionStatus = "ENDED"
)

func (s SessionStatus) String() string {
	return string(s)
}
