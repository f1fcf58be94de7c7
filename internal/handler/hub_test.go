package handler

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"whiteboard-backend/internal/model"
)

// fakeConn records every message written to it.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) events(t *testing.T) []BoardEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]BoardEvent, 0, len(f.messages))
	for _, raw := range f.messages {
		var ev BoardEvent
		assert.NoError(t, json.Unmarshal(raw, &ev))
		out = append(out, ev)
	}
	return out
}

var hubRoom = model.RoomRef{Kind: model.RoomKindClass, ID: 42}

func TestHubBroadcastReachesEveryone(t *testing.T) {
	hub := NewBoardHub()

	connA, connB := &fakeConn{}, &fakeConn{}
	clientA := NewBoardClient(1, "alice", connA)
	clientB := NewBoardClient(2, "bob", connB)

	hub.Join(hubRoom, clientA)
	hub.Join(hubRoom, clientB)
	assert.Equal(t, 2, hub.RoomSize(hubRoom))

	hub.Broadcast(hubRoom, EventStrokeCompleted, map[string]string{"strokeToken": "tok-1"})

	assert.Len(t, connA.events(t), 1)
	assert.Len(t, connB.events(t), 1)
	assert.Equal(t, EventStrokeCompleted, connA.events(t)[0].Type)
}

func TestHubBroadcastExceptSkipsSender(t *testing.T) {
	hub := NewBoardHub()

	connA, connB, connC := &fakeConn{}, &fakeConn{}, &fakeConn{}
	clientA := NewBoardClient(1, "alice", connA)
	clientB := NewBoardClient(2, "bob", connB)
	clientC := NewBoardClient(3, "carol", connC)

	hub.Join(hubRoom, clientA)
	hub.Join(hubRoom, clientB)
	hub.Join(hubRoom, clientC)

	hub.BroadcastExcept(hubRoom, clientA.SessionID, EventStrokeMove, map[string]string{"strokeToken": "tok-1"})

	assert.Empty(t, connA.events(t))
	assert.Len(t, connB.events(t), 1)
	assert.Len(t, connC.events(t), 1)
}

func TestHubRoomsDoNotLeak(t *testing.T) {
	hub := NewBoardHub()
	otherRoom := model.RoomRef{Kind: model.RoomKindSession, ID: 42}

	connA, connB := &fakeConn{}, &fakeConn{}
	clientA := NewBoardClient(1, "alice", connA)
	clientB := NewBoardClient(2, "bob", connB)

	hub.Join(hubRoom, clientA)
	hub.Join(otherRoom, clientB)

	// class:42로의 방송은 session:42에 도달하지 않는다
	hub.Broadcast(hubRoom, EventCleared, nil)

	assert.Len(t, connA.events(t), 1)
	assert.Empty(t, connB.events(t))
}

func TestHubLeaveDropsEmptyRoom(t *testing.T) {
	hub := NewBoardHub()

	conn := &fakeConn{}
	client := NewBoardClient(1, "alice", conn)

	hub.Join(hubRoom, client)
	hub.Leave(hubRoom, client.SessionID)

	assert.Equal(t, 0, hub.RoomSize(hubRoom))

	// 빈 방으로의 방송은 no-op
	hub.Broadcast(hubRoom, EventCleared, nil)
	assert.Empty(t, conn.events(t))
}

func TestHubJoinDuringLeaveKeepsRoomReachable(t *testing.T) {
	hub := NewBoardHub()

	// A join racing the leave that empties the room must not land in a
	// copy the hub already discarded.
	for i := 0; i < 200; i++ {
		connA := &fakeConn{}
		clientA := NewBoardClient(1, "alice", connA)
		clientB := NewBoardClient(2, "bob", &fakeConn{})

		hub.Join(hubRoom, clientB)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Join(hubRoom, clientA)
		}()
		go func() {
			defer wg.Done()
			hub.Leave(hubRoom, clientB.SessionID)
		}()
		wg.Wait()

		hub.Broadcast(hubRoom, EventCleared, nil)
		assert.Len(t, connA.events(t), 1)

		hub.Leave(hubRoom, clientA.SessionID)
	}
}

func TestHubSameUserTwoConnections(t *testing.T) {
	hub := NewBoardHub()

	connA, connB := &fakeConn{}, &fakeConn{}
	clientA := NewBoardClient(1, "alice", connA)
	clientB := NewBoardClient(1, "alice", connB) // 같은 사용자, 다른 탭

	hub.Join(hubRoom, clientA)
	hub.Join(hubRoom, clientB)
	assert.Equal(t, 2, hub.RoomSize(hubRoom))

	hub.BroadcastExcept(hubRoom, clientA.SessionID, EventStrokeStarted, nil)

	// 세션 단위 제외라서 같은 사용자의 다른 탭은 받는다
	assert.Empty(t, connA.events(t))
	assert.Len(t, connB.events(t), 1)
}
