package eventloop

import "testing"

// recordingFilter records every message it is offered and returns a
// fixed verdict.
type recordingFilter struct {
	verdict bool
	offered []Message
}

func (f *recordingFilter) PreFilterMessage(hwnd uintptr, id uint32, wparam, lparam uintptr) bool {
	f.offered = append(f.offered, Message{Hwnd: hwnd, ID: id, WParam: wparam, LParam: lparam})
	return f.verdict
}

func TestOfferEmptyDispatcher(t *testing.T) {
	d := NewDispatcher()
	if !d.Offer(Message{ID: 1}) {
		t.Error("empty dispatcher should pass every message")
	}
}

func TestOfferConsultsInOrder(t *testing.T) {
	d := NewDispatcher()
	first := &recordingFilter{verdict: true}
	second := &recordingFilter{verdict: true}
	d.AddFilter(first)
	d.AddFilter(second)

	m := Message{Hwnd: 0x10, ID: 0x401, WParam: 7, LParam: 9}
	if !d.Offer(m) {
		t.Error("all-pass filters should not veto")
	}

	if len(first.offered) != 1 || len(second.offered) != 1 {
		t.Fatalf("expected each filter consulted once, got %d and %d",
			len(first.offered), len(second.offered))
	}
	if first.offered[0] != m {
		t.Errorf("filter saw %+v, want %+v", first.offered[0], m)
	}
}

func TestOfferStopsAtFirstVeto(t *testing.T) {
	d := NewDispatcher()
	veto := &recordingFilter{verdict: false}
	after := &recordingFilter{verdict: true}
	d.AddFilter(veto)
	d.AddFilter(after)

	if d.Offer(Message{ID: 2}) {
		t.Error("vetoed message should not pass")
	}
	if len(after.offered) != 0 {
		t.Error("filters after a veto must not be consulted")
	}
}

func TestAddFilterIdempotent(t *testing.T) {
	d := NewDispatcher()
	f := &recordingFilter{verdict: true}

	d.AddFilter(f)
	d.AddFilter(f)
	if d.Len() != 1 {
		t.Fatalf("expected 1 registration, got %d", d.Len())
	}

	d.Offer(Message{ID: 3})
	if len(f.offered) != 1 {
		t.Errorf("filter consulted %d times for one message", len(f.offered))
	}
}

func TestRemoveFilter(t *testing.T) {
	d := NewDispatcher()
	f := &recordingFilter{verdict: false}

	d.AddFilter(f)
	d.RemoveFilter(f)
	if d.Len() != 0 {
		t.Fatalf("expected 0 registrations, got %d", d.Len())
	}

	// Removed filters are never consulted.
	if !d.Offer(Message{ID: 4}) {
		t.Error("message should pass once the vetoing filter is removed")
	}
	if len(f.offered) != 0 {
		t.Error("removed filter was consulted")
	}

	// Double-remove is a no-op.
	d.RemoveFilter(f)
	if d.Len() != 0 {
		t.Errorf("expected 0 registrations after double remove, got %d", d.Len())
	}
}

// Filters may be toggled from a thread other than the one pumping
// messages (Loop.Close is documented as callable from any thread), so
// offering and toggling concurrently must not race on the chain. Run
// with the race detector to verify.
func TestOfferConcurrentWithFilterToggle(t *testing.T) {
	d := NewDispatcher()
	d.AddFilter(&recordingFilter{verdict: true})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			d.Offer(Message{ID: uint32(i)})
		}
	}()

	extras := []*recordingFilter{
		{verdict: true}, {verdict: true}, {verdict: true},
	}
	for i := 0; i < 500; i++ {
		for _, f := range extras {
			d.AddFilter(f)
		}
		for _, f := range extras {
			d.RemoveFilter(f)
		}
	}
	<-done

	if d.Len() != 1 {
		t.Errorf("expected 1 registration after toggling, got %d", d.Len())
	}
}
