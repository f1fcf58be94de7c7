package model

import (
	"encoding/json"
	"time"
)

// Point is one sample of a freehand path.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure,omitempty"`
	T        int64   `json:"t,omitempty"` // client timestamp, unix millis
}

// WhiteboardStroke is one persisted drawing primitive. Geometry is frozen
// at creation; only the soft-delete flag changes afterwards.
type WhiteboardStroke struct {
	ID          int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StrokeToken string   `gorm:"type:varchar(64);not null;index:idx_stroke_room_token" json:"stroke_token"`
	RoomKind    RoomKind `gorm:"type:varchar(20);not null;index:idx_stroke_room_token;index:idx_stroke_room_created" json:"room_kind"`
	RoomID      int64    `gorm:"not null;index:idx_stroke_room_token;index:idx_stroke_room_created" json:"room_id"`
	AuthorID    int64    `gorm:"not null" json:"author_id"`
	Tool        Tool     `gorm:"type:varchar(20);not null" json:"tool"`
	Path        string   `gorm:"type:jsonb;not null;default:'[]'" json:"path"` // JSON array of points, "[]" for shapes/text
	Color       string   `gorm:"type:varchar(20);not null;default:'#000000'" json:"color"`
	Width       float64  `gorm:"not null;default:2" json:"width"`
	Opacity     float64  `gorm:"not null;default:1" json:"opacity"`
	TextContent *string  `gorm:"type:text" json:"text_content,omitempty"`
	FontSize    *float64 `json:"font_size,omitempty"`
	FontFamily  *string  `gorm:"type:varchar(100)" json:"font_family,omitempty"`
	StartX      float64  `json:"start_x"`
	StartY      float64  `json:"start_y"`
	EndX        float64  `json:"end_x"`
	EndY        float64  `json:"end_y"`

	IsDeleted bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index:idx_stroke_room_created" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (WhiteboardStroke) TableName() string {
	return "whiteboard_strokes"
}

// Room returns the stroke's room reference.
func (s *WhiteboardStroke) Room() RoomRef {
	return RoomRef{Kind: s.RoomKind, ID: s.RoomID}
}

// Points decodes the serialized freehand path. Shapes and text have an
// empty path.
func (s *WhiteboardStroke) Points() []Point {
	if s.Path == "" || s.Path == "[]" {
		return nil
	}
	var pts []Point
	if err := json.Unmarshal([]byte(s.Path), &pts); err != nil {
		return nil
	}
	return pts
}

// EncodePoints serializes a freehand path for the Path column.
func EncodePoints(pts []Point) string {
	if len(pts) == 0 {
		return "[]"
	}
	data, err := json.Marshal(pts)
	if err != nil {
		return "[]"
	}
	return string(data)
}
