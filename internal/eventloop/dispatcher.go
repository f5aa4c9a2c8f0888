// Package eventloop owns the native message pump and the filter chain
// consulted before normal dispatch.
//
// The Dispatcher is an explicit registry rather than process-global
// state: the bootstrap constructs one, hands it to the pump, and tests
// drive it directly without any native loop.
package eventloop

import "sync"

// Message is a single native message as pumped through the loop.
type Message struct {
	Hwnd   uintptr
	ID     uint32
	WParam uintptr
	LParam uintptr
}

// Filter is consulted for every message pumped through the loop, for
// every window in the process. Returning true lets the message continue
// to normal dispatch; returning false marks it fully handled and
// suppresses further dispatch.
//
// PreFilterMessage runs on the thread that owns the pump and must not
// block for more than a brief bounded time.
type Filter interface {
	PreFilterMessage(hwnd uintptr, id uint32, wparam, lparam uintptr) bool
}

// Dispatcher holds the ordered set of registered message filters.
type Dispatcher struct {
	mu      sync.RWMutex
	filters []Filter
}

// NewDispatcher returns an empty filter registry.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AddFilter registers f. Registering an already-registered filter is a
// no-op, so a filter is consulted at most once per message.
func (d *Dispatcher) AddFilter(f Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.filters {
		if existing == f {
			return
		}
	}
	d.filters = append(d.filters, f)
}

// RemoveFilter unregisters f. Removing a filter that is not registered
// is a no-op.
func (d *Dispatcher) RemoveFilter(f Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.filters {
		if existing == f {
			d.filters = append(d.filters[:i], d.filters[i+1:]...)
			return
		}
	}
}

// Len reports the number of registered filters.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.filters)
}

// Offer consults the registered filters in registration order. It
// returns false as soon as any filter claims the message; the remaining
// filters are not consulted and the message must not be dispatched.
//
// The chain is copied under the lock so filters toggled from another
// thread mid-message never race with the iteration; a toggle takes
// effect from the next offered message.
func (d *Dispatcher) Offer(m Message) bool {
	d.mu.RLock()
	filters := append([]Filter(nil), d.filters...)
	d.mu.RUnlock()

	for _, f := range filters {
		if !f.PreFilterMessage(m.Hwnd, m.ID, m.WParam, m.LParam) {
			return false
		}
	}
	return true
}
