package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"whiteboard-backend/internal/board"
	"whiteboard-backend/internal/model"
)

// memStore is an in-memory stroke store for websocket handler tests.
type memStore struct {
	strokes []*model.WhiteboardStroke
	nextID  int64
}

func (m *memStore) Append(_ context.Context, stroke *model.WhiteboardStroke) error {
	m.nextID++
	stroke.ID = m.nextID
	m.strokes = append(m.strokes, stroke)
	return nil
}

func (m *memStore) SoftDelete(_ context.Context, room model.RoomRef, token string) (bool, error) {
	for _, s := range m.strokes {
		if s.Room() == room && s.StrokeToken == token && !s.IsDeleted {
			s.IsDeleted = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SoftDeleteAll(_ context.Context, room model.RoomRef) (int64, error) {
	var n int64
	for _, s := range m.strokes {
		if s.Room() == room && !s.IsDeleted {
			s.IsDeleted = true
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindByToken(_ context.Context, room model.RoomRef, token string) (*model.WhiteboardStroke, error) {
	for _, s := range m.strokes {
		if s.Room() == room && s.StrokeToken == token && !s.IsDeleted {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindLatestByAuthor(_ context.Context, room model.RoomRef, authorID int64) (*model.WhiteboardStroke, error) {
	var latest *model.WhiteboardStroke
	for _, s := range m.strokes {
		if s.Room() == room && s.AuthorID == authorID && !s.IsDeleted {
			latest = s
		}
	}
	return latest, nil
}

func (m *memStore) ListActive(_ context.Context, room model.RoomRef) ([]model.WhiteboardStroke, error) {
	var out []model.WhiteboardStroke
	for _, s := range m.strokes {
		if s.Room() == room && !s.IsDeleted {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) CountActive(_ context.Context, room model.RoomRef) (int64, error) {
	var n int64
	for _, s := range m.strokes {
		if s.Room() == room && !s.IsDeleted {
			n++
		}
	}
	return n, nil
}

// roomPolicy denies access to listed users, grants everyone else.
type roomPolicy struct {
	denied map[int64]bool
}

func (p roomPolicy) CanAccess(_ context.Context, _ model.RoomRef, userID int64) (bool, error) {
	return !p.denied[userID], nil
}

func (p roomPolicy) CanModerate(_ context.Context, _ model.RoomRef, _ int64) (bool, error) {
	return false, nil
}

func newWSFixture(denied ...int64) *BoardWSHandler {
	policy := roomPolicy{denied: make(map[int64]bool)}
	for _, id := range denied {
		policy.denied[id] = true
	}
	engine := board.NewEngine(&memStore{}, policy)
	return NewBoardWSHandler(engine, NewBoardHub(), nil)
}

func rawPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	assert.NoError(t, err)
	return data
}

type joinedClient struct {
	client *BoardClient
	conn   *fakeConn
	rooms  map[string]model.RoomRef
}

func joinRoom(h *BoardWSHandler, room model.RoomRef, userID int64, nickname string) joinedClient {
	conn := &fakeConn{}
	client := NewBoardClient(userID, nickname, conn)
	h.hub.Join(room, client)
	return joinedClient{
		client: client,
		conn:   conn,
		rooms:  map[string]model.RoomRef{room.Key(): room},
	}
}

// One user draws a freehand stroke while another watches. The watcher
// sees the full start/move/completed sequence; the drawer, who already
// rendered locally, gets only the authoritative completion.
func TestFreehandLifecycleEventScopes(t *testing.T) {
	h := newWSFixture()
	drawer := joinRoom(h, hubRoom, 1, "alice")
	watcher := joinRoom(h, hubRoom, 2, "bob")

	h.handleStartStroke(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "tok-1", "tool": "pen", "color": "#000000", "width": 2.0, "opacity": 1.0,
		"startPoint": map[string]float64{"x": 0, "y": 0},
	}))
	h.handleDrawMove(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "tok-1", "points": []map[string]float64{{"x": 1, "y": 1}},
	}))
	h.handleDrawMove(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "tok-1", "points": []map[string]float64{{"x": 2, "y": 2}},
	}))
	h.handleEndStroke(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42, "token": "tok-1",
	}))

	watched := watcher.conn.events(t)
	assert.Equal(t, []string{
		EventStrokeStarted,
		EventStrokeMove,
		EventStrokeMove,
		EventStrokeCompleted,
	}, eventTypes(watched))

	drawn := drawer.conn.events(t)
	assert.Equal(t, []string{EventStrokeCompleted}, eventTypes(drawn))
}

// Shapes follow the same split: the echo-free shape-drawn goes to the
// others, the completion with the durable id goes to everyone.
func TestShapeEventScopes(t *testing.T) {
	h := newWSFixture()
	drawer := joinRoom(h, hubRoom, 1, "alice")
	watcher := joinRoom(h, hubRoom, 2, "bob")

	h.handleDrawShape(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "shape-1", "tool": "rectangle", "color": "#ff0000", "width": 2.0,
		"startX": 10.0, "startY": 10.0, "endX": 50.0, "endY": 30.0,
	}))

	assert.Equal(t, []string{EventShapeDrawn, EventStrokeCompleted}, eventTypes(watcher.conn.events(t)))
	assert.Equal(t, []string{EventStrokeCompleted}, eventTypes(drawer.conn.events(t)))
}

// Erase and clear outcomes are authoritative and reach the sender too.
func TestEraseAndClearReachSender(t *testing.T) {
	h := newWSFixture()
	drawer := joinRoom(h, hubRoom, 1, "alice")
	watcher := joinRoom(h, hubRoom, 2, "bob")

	h.handleDrawShape(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "shape-1", "tool": "line",
	}))
	h.handleEraseStroke(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42, "token": "shape-1",
	}))

	drawn := eventTypes(drawer.conn.events(t))
	assert.Equal(t, EventStrokeErased, drawn[len(drawn)-1])
	watched := eventTypes(watcher.conn.events(t))
	assert.Equal(t, EventStrokeErased, watched[len(watched)-1])
}

// A moved stroke the sender does not own is dropped without any fan-out
// and without an error event.
func TestForeignMoveEmitsNothing(t *testing.T) {
	h := newWSFixture()
	drawer := joinRoom(h, hubRoom, 1, "alice")
	intruder := joinRoom(h, hubRoom, 2, "bob")

	h.handleStartStroke(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "tok-1", "tool": "pen",
		"startPoint": map[string]float64{"x": 0, "y": 0},
	}))
	drawerBefore := len(drawer.conn.events(t))
	intruderBefore := len(intruder.conn.events(t)) // the stroke-started broadcast

	h.handleDrawMove(intruder.client, intruder.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "tok-1", "points": []map[string]float64{{"x": 9, "y": 9}},
	}))

	assert.Len(t, drawer.conn.events(t), drawerBefore)
	assert.Len(t, intruder.conn.events(t), intruderBefore)
}

// sync-request works without a prior join; only the snapshot comes back,
// and only to the requester.
func TestSyncRequestWithoutJoin(t *testing.T) {
	h := newWSFixture()
	drawer := joinRoom(h, hubRoom, 1, "alice")

	h.handleDrawShape(drawer.client, drawer.rooms, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
		"token": "shape-1", "tool": "line",
	}))

	conn := &fakeConn{}
	reader := NewBoardClient(3, "carol", conn)

	h.handleSyncRequest(reader, map[string]model.RoomRef{}, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
	}))

	events := conn.events(t)
	assert.Equal(t, []string{EventSyncState}, eventTypes(events))
}

// An outsider's sync-request fails the access check and gets an error
// event, not a snapshot.
func TestSyncRequestDeniedForOutsider(t *testing.T) {
	h := newWSFixture(4)

	conn := &fakeConn{}
	outsider := NewBoardClient(4, "mallory", conn)

	h.handleSyncRequest(outsider, map[string]model.RoomRef{}, rawPayload(t, map[string]any{
		"roomKind": "class", "roomId": 42,
	}))

	assert.Equal(t, []string{EventError}, eventTypes(conn.events(t)))
}

func eventTypes(events []BoardEvent) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}
