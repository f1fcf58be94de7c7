package board

import (
	"context"
	"log"
	"time"
)

// Reaper periodically reclaims abandoned in-flight strokes from the
// buffer. An abandoned stroke simply never finalizes; no partial
// geometry is persisted and no client is notified. A sweep racing a
// concurrent finalize is safe: whichever observes the entry first wins,
// the other sees an absent entry and is a no-op.
type Reaper struct {
	buffer   *Buffer
	interval time.Duration
	maxAge   time.Duration
}

// NewReaper Reaper 생성
func NewReaper(buffer *Buffer, interval, maxAge time.Duration) *Reaper {
	return &Reaper{
		buffer:   buffer,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	log.Printf("[Reaper] Started (interval: %s, max age: %s)", r.interval, r.maxAge)
	defer log.Printf("[Reaper] Stopped")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.buffer.Sweep(r.maxAge); n > 0 {
				log.Printf("[Reaper] Reclaimed %d abandoned strokes, %d in flight", n, r.buffer.Len())
			}
		}
	}
}
