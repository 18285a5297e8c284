package intake

import (
	"sync"
	"time"
)

// expiredBatchTTL is how long a finalized batch id is remembered so that
// late parts are rejected instead of silently opening a fresh buffer.
const expiredBatchTTL = 10 * time.Minute

// FinalizedBatch is handed to the collector's sink when a debounce window
// closes. Parts are in arrival order.
type FinalizedBatch struct {
	BatchID       string
	ParticipantID uint
	StepID        string
	Expected      int
	Parts         []string
}

// batchBuffer accumulates the parts of one in-flight batch.
type batchBuffer struct {
	participantID uint
	stepID        string
	expected      int
	parts         []string
	timer         *time.Timer
}

// BatchCollector buffers multi-part submissions keyed by the transport's
// grouping id. The first part starts a fixed debounce window; the buffer
// is finalized and handed to the sink when the expected count arrives or
// when the window elapses, whichever comes first. Partial batches are
// never partially accepted — the sink decides based on the count.
type BatchCollector struct {
	debounce time.Duration
	sink     func(FinalizedBatch)

	mu      sync.Mutex
	buffers map[string]*batchBuffer
	expired map[string]time.Time
}

// NewBatchCollector creates a collector. sink is invoked from the timer
// goroutine; it must not call back into the collector for the same batch.
func NewBatchCollector(debounce time.Duration, sink func(FinalizedBatch)) *BatchCollector {
	return &BatchCollector{
		debounce: debounce,
		sink:     sink,
		buffers:  make(map[string]*batchBuffer),
		expired:  make(map[string]time.Time),
	}
}

// Add appends one part to the batch. The first part for a batch id opens
// the buffer and starts the debounce timer; the window is fixed, not
// sliding. A batch that reaches its expected part count finalizes right
// away instead of waiting out the window. Parts for an already-finalized
// batch id fail with ErrUnknownBatch.
func (c *BatchCollector) Add(batchID string, participantID uint, stepID string, expected int, part string) error {
	c.mu.Lock()

	c.pruneExpiredLocked()
	if _, gone := c.expired[batchID]; gone {
		c.mu.Unlock()
		return ErrUnknownBatch
	}

	buf, ok := c.buffers[batchID]
	if !ok {
		buf = &batchBuffer{participantID: participantID, stepID: stepID, expected: expected}
		buf.timer = time.AfterFunc(c.debounce, func() { c.finalize(batchID) })
		c.buffers[batchID] = buf
	}
	buf.parts = append(buf.parts, part)

	full := buf.expected > 0 && len(buf.parts) >= buf.expected
	if full {
		buf.timer.Stop()
	}
	c.mu.Unlock()

	if full {
		c.finalize(batchID)
	}
	return nil
}

// Pending reports whether the batch id has an open buffer.
func (c *BatchCollector) Pending(batchID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.buffers[batchID]
	return ok
}

// Flush finalizes the batch immediately, without waiting for the debounce
// window. Used by tests and shutdown paths.
func (c *BatchCollector) Flush(batchID string) {
	c.mu.Lock()
	buf, ok := c.buffers[batchID]
	if ok {
		buf.timer.Stop()
	}
	c.mu.Unlock()
	if ok {
		c.finalize(batchID)
	}
}

// Discard drops an open buffer without invoking the sink. The batch id is
// still remembered as expired.
func (c *BatchCollector) Discard(batchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if buf, ok := c.buffers[batchID]; ok {
		buf.timer.Stop()
		delete(c.buffers, batchID)
		c.expired[batchID] = time.Now()
	}
}

// finalize removes the buffer and hands its contents to the sink.
func (c *BatchCollector) finalize(batchID string) {
	c.mu.Lock()
	buf, ok := c.buffers[batchID]
	if ok {
		delete(c.buffers, batchID)
		c.expired[batchID] = time.Now()
	}
	c.mu.Unlock()

	if !ok || c.sink == nil {
		return
	}
	c.sink(FinalizedBatch{
		BatchID:       batchID,
		ParticipantID: buf.participantID,
		StepID:        buf.stepID,
		Expected:      buf.expected,
		Parts:         buf.parts,
	})
}

// pruneExpiredLocked drops expired ids older than the TTL. Caller holds mu.
func (c *BatchCollector) pruneExpiredLocked() {
	cutoff := time.Now().Add(-expiredBatchTTL)
	for id, at := range c.expired {
		if at.Before(cutoff) {
			delete(c.expired, id)
		}
	}
}
