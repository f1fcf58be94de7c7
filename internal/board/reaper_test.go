package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"whiteboard-backend/internal/model"
)

func TestReaperReclaimsStaleStrokes(t *testing.T) {
	b := NewBuffer()
	b.Start(testRoom, "stale", 7, model.ToolPen, "#000000", 2, 1, model.Point{})
	b.entries[bufferKey{kind: testRoom.Kind, roomID: testRoom.ID, token: "stale"}].LastTouched = time.Now().Add(-time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewReaper(b, 10*time.Millisecond, 5*time.Minute)
	go r.Run(ctx)

	assert.Eventually(t, func() bool {
		return b.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestReaperStopsOnCancel(t *testing.T) {
	b := NewBuffer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	r := NewReaper(b, 10*time.Millisecond, 5*time.Minute)
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
