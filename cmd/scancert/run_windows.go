//go:build windows

package main

import (
	"context"
	"runtime"
	"time"

	"scancert/internal/bridge"
	"scancert/internal/config"
	"scancert/internal/eventloop"
	"scancert/internal/logging"
	"scancert/internal/report"
	"scancert/internal/terminal"
)

func init() {
	// The message loop must run on the thread that creates the window.
	runtime.LockOSThread()
}

// runSession drives the event-loop execution model: the starting
// thread owns the native pump, the terminal runs on a worker
// goroutine, and the bridge forwards filtered messages between them.
func runSession(cfg *config.Config, steps []config.Step, log *logging.Logger) error {
	disp := eventloop.NewDispatcher()
	loop, err := eventloop.NewLoop(disp, "Scanner Certification Host")
	if err != nil {
		return err
	}

	br := bridge.New(disp, loop.Window())
	br.SetFilter(true)
	defer br.SetFilter(false)

	journal, err := report.Open(cfg.Report.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	dataMsg, err := eventloop.RegisterMessage(cfg.Driver.DataMessage)
	if err != nil {
		return err
	}

	term := terminal.New(terminal.Options{
		Driver:      cfg.Driver.Name,
		Steps:       steps,
		StepTimeout: time.Duration(cfg.Session.StepTimeoutSec) * time.Second,
		DataMessage: dataMsg,
		Window:      loop.Window(),
		Journal:     journal,
		Log:         log,
		OnDone:      loop.Close,
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- term.Run(context.Background())
	}()

	// Messages offered between loop start and this attach pass
	// through untouched; the terminal has no interest in them yet.
	br.Attach(term)

	if err := loop.Run(); err != nil {
		log.Error("message loop error", "error", err)
	}

	return <-runErr
}
