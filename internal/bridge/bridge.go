// Package bridge forwards filtered native messages into the
// certification terminal.
//
// The bridge sits between the message pump and the terminal: the pump
// offers it every message in the process, and the bridge asks the
// terminal whether the message is a protocol event it must consume.
// Some driver notifications (data-ready signals, driver-owned
// sub-window activity) have to be observed at this level because the
// terminal has no other path to process-wide native events originating
// from a third-party driver's own windows.
package bridge

import (
	"sync"
	"sync/atomic"

	"scancert/internal/eventloop"
)

// Engine is the verdict query the terminal exposes. It is called on
// the pump's thread and must not block; true lets the message continue
// to normal dispatch, false suppresses it.
type Engine interface {
	PreFilterMessage(hwnd uintptr, id uint32, wparam, lparam uintptr) bool
}

// Bridge is a message filter bound to the harness's top-level window.
// It holds a back-reference to the terminal, set once after the
// terminal is constructed. The bridge never owns the terminal's
// lifecycle; it only queries it.
type Bridge struct {
	disp *eventloop.Dispatcher
	hwnd uintptr

	mu      sync.Mutex
	enabled bool

	// engine is published by the worker-starting thread and read by
	// the pump thread. Messages offered before Attach pass through
	// unconditionally; the startup sequence attaches before returning
	// control to the pump, so the window where that matters is
	// bounded and accepted.
	engine atomic.Value // Engine
}

// New returns a bridge bound to the given dispatcher and top-level
// window handle. The bridge starts disabled and with no engine.
func New(disp *eventloop.Dispatcher, hwnd uintptr) *Bridge {
	return &Bridge{disp: disp, hwnd: hwnd}
}

// Window returns the bound top-level window handle.
func (b *Bridge) Window() uintptr {
	return b.hwnd
}

// SetFilter registers or unregisters the bridge with the dispatcher.
// While enabled the bridge is registered exactly once; repeated
// enables or disables beyond the first are no-ops.
func (b *Bridge) SetFilter(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if enabled == b.enabled {
		return
	}
	if enabled {
		b.disp.AddFilter(b)
	} else {
		b.disp.RemoveFilter(b)
	}
	b.enabled = enabled
}

// Attach sets the engine back-reference. Called once, after the engine
// exists and its run has been started.
func (b *Bridge) Attach(e Engine) {
	b.engine.Store(e)
}

// PreFilterMessage implements eventloop.Filter. With no engine
// attached the bridge is transparent; otherwise the verdict is the
// engine's, queried exactly once with the same four values.
func (b *Bridge) PreFilterMessage(hwnd uintptr, id uint32, wparam, lparam uintptr) bool {
	e, ok := b.engine.Load().(Engine)
	if !ok || e == nil {
		return true
	}
	return e.PreFilterMessage(hwnd, id, wparam, lparam)
}
