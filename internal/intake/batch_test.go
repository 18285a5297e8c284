package intake

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type batchRecorder struct {
	mu   sync.Mutex
	got  []FinalizedBatch
	done chan struct{}
}

func newBatchRecorder() *batchRecorder {
	return &batchRecorder{done: make(chan struct{}, 8)}
}

func (r *batchRecorder) sink(fb FinalizedBatch) {
	r.mu.Lock()
	r.got = append(r.got, fb)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *batchRecorder) wait(t *testing.T) FinalizedBatch {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch was never finalized")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

func TestBatchCollectorFinalizesFullSetImmediately(t *testing.T) {
	rec := newBatchRecorder()
	// An hour-long window: the full set must finalize without waiting it out.
	c := NewBatchCollector(time.Hour, rec.sink)

	for _, part := range []string{"front", "back", "right", "left"} {
		if err := c.Add("b1", 7, "body_photos", 4, part); err != nil {
			t.Fatalf("Add(%q) = %v, want nil", part, err)
		}
	}

	fb := rec.wait(t)
	if fb.BatchID != "b1" || fb.ParticipantID != 7 || fb.Expected != 4 {
		t.Errorf("finalized = %+v, want b1/7/4", fb)
	}
	if fb.StepID != "body_photos" {
		t.Errorf("step = %q, want body_photos", fb.StepID)
	}
	if len(fb.Parts) != 4 || fb.Parts[0] != "front" || fb.Parts[3] != "left" {
		t.Errorf("parts = %v, want arrival order front..left", fb.Parts)
	}
	if c.Pending("b1") {
		t.Error("Pending(b1) = true after the full set arrived")
	}
}

func TestBatchCollectorFinalizesShortSet(t *testing.T) {
	rec := newBatchRecorder()
	c := NewBatchCollector(30*time.Millisecond, rec.sink)

	// Only 3 of 4 arrive before the window closes: the sink still gets the
	// buffer and decides what to do with the shortfall.
	for _, part := range []string{"a", "b", "c"} {
		if err := c.Add("b1", 7, "body_photos", 4, part); err != nil {
			t.Fatal(err)
		}
	}

	fb := rec.wait(t)
	if len(fb.Parts) != 3 || fb.Expected != 4 {
		t.Errorf("finalized with %d/%d parts, want 3/4", len(fb.Parts), fb.Expected)
	}
}

func TestBatchCollectorRejectsLateParts(t *testing.T) {
	rec := newBatchRecorder()
	c := NewBatchCollector(10*time.Millisecond, rec.sink)

	if err := c.Add("b1", 7, "hands", 2, "a"); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)

	if err := c.Add("b1", 7, "hands", 2, "late"); !errors.Is(err, ErrUnknownBatch) {
		t.Errorf("Add after finalize = %v, want ErrUnknownBatch", err)
	}
}

func TestBatchCollectorWindowIsFixed(t *testing.T) {
	rec := newBatchRecorder()
	c := NewBatchCollector(50*time.Millisecond, rec.sink)

	start := time.Now()
	if err := c.Add("b1", 7, "body_photos", 3, "a"); err != nil {
		t.Fatal(err)
	}
	// Later parts must not push the deadline out.
	time.Sleep(20 * time.Millisecond)
	if err := c.Add("b1", 7, "body_photos", 3, "b"); err != nil {
		t.Fatal(err)
	}

	rec.wait(t)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("window closed after %v, want close to the fixed 50ms", elapsed)
	}
}

func TestBatchCollectorFlush(t *testing.T) {
	rec := newBatchRecorder()
	c := NewBatchCollector(time.Hour, rec.sink)

	if err := c.Add("b1", 7, "body_photos", 3, "a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Add("b1", 7, "body_photos", 3, "b"); err != nil {
		t.Fatal(err)
	}
	if !c.Pending("b1") {
		t.Fatal("Pending(b1) = false before flush")
	}

	c.Flush("b1")

	fb := rec.wait(t)
	if len(fb.Parts) != 2 {
		t.Errorf("flushed parts = %v, want 2", fb.Parts)
	}
	if c.Pending("b1") {
		t.Error("Pending(b1) = true after flush")
	}
}

func TestBatchCollectorDiscard(t *testing.T) {
	rec := newBatchRecorder()
	c := NewBatchCollector(time.Hour, rec.sink)

	if err := c.Add("b1", 7, "hands", 2, "a"); err != nil {
		t.Fatal(err)
	}
	c.Discard("b1")

	if c.Pending("b1") {
		t.Error("Pending(b1) = true after discard")
	}
	if err := c.Add("b1", 7, "hands", 2, "b"); !errors.Is(err, ErrUnknownBatch) {
		t.Errorf("Add after Discard = %v, want ErrUnknownBatch", err)
	}

	select {
	case <-rec.done:
		t.Error("sink invoked for a discarded batch")
	case <-time.After(30 * time.Millisecond):
	}
}
