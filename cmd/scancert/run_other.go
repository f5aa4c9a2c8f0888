//go:build !windows

package main

import (
	"context"
	"time"

	"scancert/internal/config"
	"scancert/internal/logging"
	"scancert/internal/report"
	"scancert/internal/terminal"
)

// runSession drives the direct execution model: no message loop, no
// bridge, no second goroutine. The terminal runs synchronously on the
// starting thread.
func runSession(cfg *config.Config, steps []config.Step, log *logging.Logger) error {
	journal, err := report.Open(cfg.Report.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	term := terminal.New(terminal.Options{
		Driver:      cfg.Driver.Name,
		Steps:       steps,
		StepTimeout: time.Duration(cfg.Session.StepTimeoutSec) * time.Second,
		Journal:     journal,
		Log:         log,
	})

	return term.Run(context.Background())
}
