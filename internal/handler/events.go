package handler

// Inbound action types on the board websocket channel.
const (
	ActionJoinRoom    = "join-room"
	ActionLeaveRoom   = "leave-room"
	ActionStartStroke = "start-stroke"
	ActionDrawMove    = "draw-move"
	ActionEndStroke   = "end-stroke"
	ActionDrawShape   = "draw-shape"
	ActionDrawText    = "draw-text"
	ActionEraseStroke = "erase-stroke"
	ActionUndo        = "undo"
	ActionClear       = "clear"
	ActionSyncRequest = "sync-request"
)

// Outbound event types on the board websocket channel.
const (
	EventConnected       = "connected"
	EventSyncState       = "sync-state"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventStrokeStarted   = "stroke-started"
	EventStrokeMove      = "stroke-move"
	EventStrokeCompleted = "stroke-completed"
	EventShapeDrawn      = "shape-drawn"
	EventTextDrawn       = "text-drawn"
	EventStrokeErased    = "stroke-erased"
	EventStrokeUndone    = "stroke-undone"
	EventCleared         = "cleared"
	EventError           = "error"
)
