package queue

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	frames []string
	block  chan struct{}
	fail   error
}

func (r *recorder) write(frame []byte) error {
	if r.block != nil {
		<-r.block
	}
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, string(frame))
	return nil
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

func waitDone(t *testing.T, ob *Outbox) {
	t.Helper()
	select {
	case <-ob.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("outbox did not finish")
	}
}

func TestOutbox_DeliversInOrderAndDrainsOnShutdown(t *testing.T) {
	rec := &recorder{}
	ob := NewOutbox("test", 16, rec.write, nil)
	for _, f := range []string{"a", "b", "c"} {
		if !ob.Enqueue([]byte(f)) {
			t.Fatalf("Enqueue(%q) dropped", f)
		}
	}
	ob.Shutdown()
	waitDone(t, ob)

	got := rec.got()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("frames = %v", got)
	}
	if ob.Enqueue([]byte("late")) {
		t.Error("Enqueue after Shutdown should be refused")
	}
	if sent, dropped := ob.Stats(); sent != 3 || dropped != 0 {
		t.Errorf("Stats() = %d, %d", sent, dropped)
	}
}

func TestOutbox_DropsWhenFull(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	ob := NewOutbox("slow", 2, rec.write, nil)

	// The writer holds the first frame while the buffer fills up.
	ob.Enqueue([]byte("1"))
	deadline := time.Now().Add(time.Second)
	for ob.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	ob.Enqueue([]byte("2"))
	ob.Enqueue([]byte("3"))
	if ob.Enqueue([]byte("4")) {
		t.Error("fourth frame should be dropped")
	}
	close(rec.block)
	ob.Shutdown()
	waitDone(t, ob)

	if _, dropped := ob.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestOutbox_WriteErrorStops(t *testing.T) {
	rec := &recorder{fail: errors.New("broken pipe")}
	errs := make(chan error, 1)
	ob := NewOutbox("broken", 4, rec.write, func(err error) { errs <- err })
	ob.Enqueue([]byte("x"))

	select {
	case err := <-errs:
		if err.Error() != "broken pipe" {
			t.Errorf("onError got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onError was not called")
	}
	waitDone(t, ob)
	if ob.Enqueue([]byte("y")) {
		t.Error("outbox should refuse frames after a write error")
	}
}

func TestManager_ReplaceAndShutdown(t *testing.T) {
	m := NewManager(8)
	first := &recorder{}
	second := &recorder{}

	a := m.Open("client 1", first.write, nil)
	b := m.Open("client 1", second.write, nil)
	waitDone(t, a)
	if m.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.Count())
	}

	// Closing a replaced outbox leaves the current one registered.
	m.Close("client 1", a)
	if m.Count() != 1 {
		t.Fatalf("Count after stale close = %d, want 1", m.Count())
	}

	b.Enqueue([]byte("bye"))
	m.Shutdown()
	if m.Count() != 0 {
		t.Errorf("Count after shutdown = %d", m.Count())
	}
	if got := second.got(); len(got) != 1 || got[0] != "bye" {
		t.Errorf("frames = %v, want [bye]", got)
	}
}
