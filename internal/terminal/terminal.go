// Package terminal runs the driver-certification session.
//
// The terminal owns all certification work and runs to completion on a
// single worker goroutine (or the starting goroutine in direct mode).
// Its only cross-thread surface is PreFilterMessage, the verdict query
// the event bridge calls from the pump's thread.
package terminal

import (
	"context"
	"sync/atomic"
	"time"

	"scancert/internal/config"
	"scancert/internal/logging"
	"scancert/internal/report"
)

// Journal is the results store the terminal records into. *report.Store
// implements it.
type Journal interface {
	BeginRun(driver string) (int64, error)
	RecordStep(runID int64, name, status, detail string, d time.Duration) error
	FinishRun(runID int64, status string) error
}

// Options configures a terminal.
type Options struct {
	// Driver is the display name of the driver under certification.
	Driver string

	// Steps is the resolved session plan.
	Steps []config.Step

	// StepTimeout bounds each step that waits on a driver notification.
	StepTimeout time.Duration

	// DataMessage is the native message ID the driver posts when
	// transfer data is ready. Zero means no notification source
	// exists (direct mode) and waiting steps are skipped.
	DataMessage uint32

	// Window is the harness's top-level window handle, shared
	// read-only. Zero in direct mode.
	Window uintptr

	// Journal records run and step outcomes.
	Journal Journal

	// Log is the terminal's logger.
	Log *logging.Logger

	// OnDone is invoked exactly once when the run finishes, before
	// Run returns. In event-loop mode it posts close to the
	// top-level window so the pump unwinds.
	OnDone func()
}

// Terminal is the certification sequencer.
type Terminal struct {
	opts Options

	// dataReady is signalled from the pump thread when a data
	// notification is consumed. Buffered so the filter callback
	// never blocks.
	dataReady chan struct{}
	consumed  atomic.Uint64
}

// New returns a terminal ready to run.
func New(opts Options) *Terminal {
	if opts.Log == nil {
		opts.Log = logging.Default()
	}
	return &Terminal{
		opts:      opts,
		dataReady: make(chan struct{}, 1),
	}
}

// Run executes the session plan to completion. It blocks until every
// step has run or the context is cancelled, records outcomes in the
// journal, then invokes OnDone.
func (t *Terminal) Run(ctx context.Context) error {
	if t.opts.OnDone != nil {
		defer t.opts.OnDone()
	}

	log := t.opts.Log
	log.Info("certification run starting",
		"driver", t.opts.Driver, "steps", len(t.opts.Steps))

	runID, err := t.opts.Journal.BeginRun(t.opts.Driver)
	if err != nil {
		return err
	}

	runStatus := report.RunComplete
	for _, step := range t.opts.Steps {
		if ctx.Err() != nil {
			runStatus = report.RunAborted
			break
		}

		start := time.Now()
		status, detail := t.runStep(ctx, step)
		elapsed := time.Since(start)

		log.Info("step finished",
			"step", step.Name, "status", status, "elapsed", elapsed)
		if err := t.opts.Journal.RecordStep(runID, step.Name, status, detail, elapsed); err != nil {
			// The run cannot be trusted past a journal failure; close
			// the row out rather than leave it running forever.
			if ferr := t.opts.Journal.FinishRun(runID, report.RunAborted); ferr != nil {
				log.Error("finish aborted run", "error", ferr)
			}
			return err
		}
	}

	if err := t.opts.Journal.FinishRun(runID, runStatus); err != nil {
		return err
	}

	log.Info("certification run finished",
		"status", runStatus, "data_notifications", t.consumed.Load())
	return ctx.Err()
}

func (t *Terminal) runStep(ctx context.Context, step config.Step) (status, detail string) {
	if !step.WaitForData {
		return report.StatusPassed, ""
	}
	if t.opts.DataMessage == 0 {
		return report.StatusSkipped, "no data notification source on this platform"
	}

	timer := time.NewTimer(t.opts.StepTimeout)
	defer timer.Stop()

	select {
	case <-t.dataReady:
		return report.StatusPassed, ""
	case <-timer.C:
		return report.StatusFailed, "timed out waiting for data notification"
	case <-ctx.Done():
		return report.StatusSkipped, "run cancelled"
	}
}

// PreFilterMessage is the verdict query the event bridge delegates to.
// It runs on the pump's thread: it consumes the driver's data-ready
// notification (returning false so the host window never sees it) and
// passes every other message through. It never blocks and never
// touches sequencer state beyond the counter and the buffered signal.
func (t *Terminal) PreFilterMessage(hwnd uintptr, id uint32, wparam, lparam uintptr) bool {
	if t.opts.DataMessage == 0 || id != t.opts.DataMessage {
		return true
	}

	t.consumed.Add(1)
	select {
	case t.dataReady <- struct{}{}:
	default:
	}
	return false
}

// DataNotifications reports how many data-ready messages the terminal
// has consumed.
func (t *Terminal) DataNotifications() uint64 {
	return t.consumed.Load()
}
