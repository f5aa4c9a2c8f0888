// Package platform classifies the host into one of the two execution
// models the harness supports. On Windows the scanner driver delivers
// notifications through the process message queue, so a native message
// loop must own the starting thread; everywhere else the terminal runs
// synchronously on the starting thread.
package platform

import "runtime"

// Mode is the execution model for the current process.
type Mode int

const (
	// Direct runs the terminal synchronously on the starting thread.
	Direct Mode = iota

	// EventLoopDriven pumps the native message loop on the starting
	// thread while the terminal runs on a worker goroutine.
	EventLoopDriven
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case EventLoopDriven:
		return "event-loop"
	default:
		return "direct"
	}
}

// Detect returns the execution mode for the host platform. The result
// is a pure function of the platform and never changes during a run.
func Detect() Mode {
	return detect(runtime.GOOS)
}

func detect(goos string) Mode {
	if goos == "windows" {
		return EventLoopDriven
	}
	return Direct
}
