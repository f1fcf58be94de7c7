package board

import (
	"sync"
	"time"

	"whiteboard-backend/internal/model"
)

type bufferKey struct {
	kind   model.RoomKind
	roomID int64
	token  string
}

// ActiveStroke is the in-flight state of a stroke that has been started
// but not yet finalized. It lives only in memory; a restart loses
// unfinalized strokes without violating durability.
type ActiveStroke struct {
	Token       string
	Room        model.RoomRef
	AuthorID    int64
	Tool        model.Tool
	Color       string
	Width       float64
	Opacity     float64
	Points      []model.Point
	LastTouched time.Time
}

// Buffer holds all in-flight strokes, keyed by (room, stroke token).
// Start, AppendPoints, Finalize and Sweep all read-modify-write the same
// map, so every operation takes the lock.
type Buffer struct {
	mu      sync.RWMutex
	entries map[bufferKey]*ActiveStroke
}

// NewBuffer Buffer 생성
func NewBuffer() *Buffer {
	return &Buffer{
		entries: make(map[bufferKey]*ActiveStroke),
	}
}

// Start creates the entry for a freehand stroke with its first point.
// A repeated start for the same token replaces the entry outright; the
// latest author owns the token for all subsequent ownership checks.
func (b *Buffer) Start(room model.RoomRef, token string, authorID int64, tool model.Tool, color string, width, opacity float64, first model.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[bufferKey{kind: room.Kind, roomID: room.ID, token: token}] = &ActiveStroke{
		Token:       token,
		Room:        room,
		AuthorID:    authorID,
		Tool:        tool,
		Color:       color,
		Width:       width,
		Opacity:     opacity,
		Points:      []model.Point{first},
		LastTouched: time.Now(),
	}
}

// AppendPoints adds points to an in-flight stroke. Returns nil when no
// entry exists for the token or the author does not match; the caller
// drops the update without surfacing an error.
func (b *Buffer) AppendPoints(room model.RoomRef, token string, authorID int64, pts []model.Point) []model.Point {
	if len(pts) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[bufferKey{kind: room.Kind, roomID: room.ID, token: token}]
	if !ok || entry.AuthorID != authorID {
		return nil
	}

	entry.Points = append(entry.Points, pts...)
	entry.LastTouched = time.Now()
	return pts
}

// Finalize removes the entry and returns the accumulated state for
// persistence. Returns nil on the same conditions as AppendPoints.
func (b *Buffer) Finalize(room model.RoomRef, token string, authorID int64) *ActiveStroke {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bufferKey{kind: room.Kind, roomID: room.ID, token: token}
	entry, ok := b.entries[key]
	if !ok || entry.AuthorID != authorID {
		return nil
	}

	delete(b.entries, key)
	return entry
}

// Sweep removes every entry whose last-touched timestamp is older than
// maxAge, regardless of author, and returns how many were removed.
func (b *Buffer) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for key, entry := range b.entries {
		if entry.LastTouched.Before(cutoff) {
			delete(b.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of in-flight strokes across all rooms.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries)
}
