package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomKindValid(t *testing.T) {
	assert.True(t, RoomKindClass.Valid())
	assert.True(t, RoomKindSession.Valid())
	assert.False(t, RoomKind("workspace").Valid())
	assert.False(t, RoomKind("").Valid())
}

func TestRoomRefKey(t *testing.T) {
	assert.Equal(t, "class:42", RoomRef{Kind: RoomKindClass, ID: 42}.Key())
	assert.Equal(t, "session:7", RoomRef{Kind: RoomKindSession, ID: 7}.Key())
}

func TestToolPartition(t *testing.T) {
	freehand := []Tool{ToolPen, ToolHighlighter, ToolEraser}
	shapes := []Tool{ToolRectangle, ToolEllipse, ToolLine, ToolArrow}

	for _, tool := range freehand {
		assert.True(t, tool.Valid(), tool)
		assert.True(t, tool.IsFreehand(), tool)
		assert.False(t, tool.IsShape(), tool)
	}
	for _, tool := range shapes {
		assert.True(t, tool.Valid(), tool)
		assert.True(t, tool.IsShape(), tool)
		assert.False(t, tool.IsFreehand(), tool)
	}

	// text는 freehand도 shape도 아님
	assert.True(t, ToolText.Valid())
	assert.False(t, ToolText.IsFreehand())
	assert.False(t, ToolText.IsShape())

	assert.False(t, Tool("spray").Valid())
}

func TestPointsRoundTrip(t *testing.T) {
	pts := []Point{{X: 1, Y: 2, Pressure: 0.5, T: 1000}, {X: 3, Y: 4}}

	s := WhiteboardStroke{Path: EncodePoints(pts)}
	assert.Equal(t, pts, s.Points())

	empty := WhiteboardStroke{Path: "[]"}
	assert.Nil(t, empty.Points())
	assert.Equal(t, "[]", EncodePoints(nil))
}
